// Package output encodes frames into animations and still images and names
// the files they are written to.
package output

import (
	"fmt"
	"image"
	"io"
	"sort"
	"strings"

	"github.com/bryanchriswhite/snapreel/internal/errs"
)

// CancelFunc is polled before each frame; true stops the encoder.
type CancelFunc func() bool

// AnimEncoder writes a whole frame sequence to w.
//
// When cancel fires the frames before it are still written as a valid file
// and the error is errs.ErrUserInterrupt.
type AnimEncoder interface {
	Save(w io.Writer, images []*image.NRGBA, cancel CancelFunc) error

	// Name returns the format name used on the command line
	Name() string

	// Ext returns the file extension without the dot
	Ext() string
}

// ImageEncoder writes a single image.
type ImageEncoder interface {
	Encode(w io.Writer, img image.Image) error
	Name() string
	Ext() string
}

// Config holds the common parameters of the animation encoders.
type Config struct {
	Width  int
	Height int
	FPS    uint32
}

// Animated reports whether name is an animation format.
func Animated(name string) bool {
	switch strings.ToLower(name) {
	case "gif", "apng":
		return true
	}
	return false
}

// StillFormats lists the single image format names, sorted.
func StillFormats() []string {
	names := make([]string, 0, len(stillFormats))
	for name := range stillFormats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FormatFromExtension maps a file extension to a format name.
func FormatFromExtension(ext string) (string, error) {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	switch ext {
	case "gif", "apng":
		return ext, nil
	case "jpeg":
		return "jpg", nil
	case "tif":
		return "tiff", nil
	case "farbfeld":
		return "ff", nil
	case "ppm", "pgm", "pam":
		return "pnm", nil
	}
	if _, ok := stillFormats[ext]; ok {
		return ext, nil
	}
	return "", errs.Config("unsupported image format %q", ext)
}

func cancelled(cancel CancelFunc) bool {
	return cancel != nil && cancel()
}

// recoverEncode turns a panic inside an encoder into an error on *err.
func recoverEncode(name string, err *error) {
	if v := recover(); v != nil {
		*err = fmt.Errorf("%s: %w", name, errs.FromPanic(v))
	}
}
