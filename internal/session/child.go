package session

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/bryanchriswhite/snapreel/internal/errs"
	"github.com/bryanchriswhite/snapreel/internal/logger"
)

// childGrace is how long a child gets to exit after SIGTERM.
const childGrace = 2 * time.Second

// Child is a command run through the shell while recording.
type Child struct {
	cmd  *exec.Cmd
	done chan struct{}
	err  error
}

// StartChild runs command with sh -c, sharing the terminal.
func StartChild(command []string) (*Child, error) {
	line := strings.Join(command, " ")
	cmd := exec.Command("sh", "-c", line)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return nil, errs.Config("failed to start %q: %v", line, err)
	}

	logger.WithComponent("session").Info().
		Str("command", line).
		Int("pid", cmd.Process.Pid).
		Msg("Command started")

	c := &Child{cmd: cmd, done: make(chan struct{})}
	go func() {
		c.err = cmd.Wait()
		close(c.done)
	}()
	return c, nil
}

// Done is closed when the child has exited.
func (c *Child) Done() <-chan struct{} { return c.done }

// Stop terminates the child if it is still running and waits for it. A
// non-zero exit status is logged, not returned.
func (c *Child) Stop() error {
	log := logger.WithComponent("session")
	select {
	case <-c.done:
	default:
		if err := c.cmd.Process.Signal(syscall.SIGTERM); err != nil && !errors.Is(err, os.ErrProcessDone) {
			return fmt.Errorf("failed to stop command: %w", err)
		}
		select {
		case <-c.done:
		case <-time.After(childGrace):
			c.cmd.Process.Kill()
			<-c.done
		}
	}

	var exitErr *exec.ExitError
	if errors.As(c.err, &exitErr) {
		log.Warn().Int("code", exitErr.ExitCode()).Msg("Command exited with an error")
		return nil
	}
	if c.err != nil {
		return fmt.Errorf("command failed: %w", c.err)
	}
	log.Debug().Msg("Command exited")
	return nil
}
