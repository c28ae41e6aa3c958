package output

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bryanchriswhite/snapreel/internal/config"
	"github.com/bryanchriswhite/snapreel/internal/errs"
)

// DefaultBaseName is used when no output name is given.
const DefaultBaseName = "t"

// Namer resolves the output file name from the save settings.
type Namer struct {
	Settings config.SaveSettings
	Now      func() time.Time
	// In and Out are used for the interactive prompt.
	In  io.Reader
	Out io.Writer
}

// Path returns the file name for a file with extension ext. A name given
// without an extension gets ext appended; date and timestamp suffixes go
// before the extension.
func (n Namer) Path(ext string) (string, error) {
	name := n.Settings.Output
	if n.Settings.Prompt {
		answer, err := n.prompt(ext)
		if err != nil {
			return "", err
		}
		if answer != "" {
			name = answer
		}
	}
	if name == "" {
		name = DefaultBaseName
	}

	base, fileExt := name, filepath.Ext(name)
	if fileExt != "" {
		base = strings.TrimSuffix(name, fileExt)
	} else {
		fileExt = "." + ext
	}

	now := time.Now
	if n.Now != nil {
		now = n.Now
	}
	t := now()
	if n.Settings.DateFormat != "" {
		base += "_" + Strftime(n.Settings.DateFormat, t)
	}
	if n.Settings.Timestamp {
		base += "_" + strconv.FormatInt(t.Unix(), 10)
	}
	return base + fileExt, nil
}

func (n Namer) prompt(ext string) (string, error) {
	if n.In == nil {
		return "", nil
	}
	if n.Out != nil {
		fmt.Fprintf(n.Out, "Output file name [%s.%s]: ", DefaultBaseName, ext)
	}
	line, err := bufio.NewReader(n.In).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", errs.IO("read file name", err)
	}
	return strings.TrimSpace(line), nil
}

// Strftime expands %Y %m %d %H %M %S and %% in format. Other directives are
// kept verbatim.
func Strftime(format string, t time.Time) string {
	var b strings.Builder
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' || i+1 == len(format) {
			b.WriteByte(c)
			continue
		}
		i++
		switch format[i] {
		case 'Y':
			fmt.Fprintf(&b, "%04d", t.Year())
		case 'm':
			fmt.Fprintf(&b, "%02d", int(t.Month()))
		case 'd':
			fmt.Fprintf(&b, "%02d", t.Day())
		case 'H':
			fmt.Fprintf(&b, "%02d", t.Hour())
		case 'M':
			fmt.Fprintf(&b, "%02d", t.Minute())
		case 'S':
			fmt.Fprintf(&b, "%02d", t.Second())
		case '%':
			b.WriteByte('%')
		default:
			b.WriteByte('%')
			b.WriteByte(format[i])
		}
	}
	return b.String()
}
