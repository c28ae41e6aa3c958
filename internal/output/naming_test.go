package output

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/bryanchriswhite/snapreel/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedTime = time.Date(2024, time.March, 5, 7, 8, 9, 0, time.UTC)

func TestStrftime(t *testing.T) {
	assert.Equal(t, "2024-03-05_07:08:09", Strftime("%Y-%m-%d_%H:%M:%S", fixedTime))
	assert.Equal(t, "100%", Strftime("100%%", fixedTime))
	assert.Equal(t, "%q%", Strftime("%q%", fixedTime))
}

func TestNamerPath(t *testing.T) {
	tests := []struct {
		name     string
		settings config.SaveSettings
		ext      string
		want     string
	}{
		{"default", config.SaveSettings{}, "gif", "t.gif"},
		{"appends extension", config.SaveSettings{Output: "clip"}, "png", "clip.png"},
		{"keeps extension", config.SaveSettings{Output: "out/clip.apng"}, "png", "out/clip.apng"},
		{"date", config.SaveSettings{Output: "clip", DateFormat: "%Y%m%d"}, "gif", "clip_20240305.gif"},
		{"timestamp", config.SaveSettings{Timestamp: true}, "gif", "t_1709622489.gif"},
		{"date and timestamp", config.SaveSettings{Output: "a.gif", DateFormat: "%H", Timestamp: true}, "gif", "a_07_1709622489.gif"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := Namer{Settings: tt.settings, Now: func() time.Time { return fixedTime }}
			got, err := n.Path(tt.ext)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNamerPrompt(t *testing.T) {
	var out bytes.Buffer
	n := Namer{
		Settings: config.SaveSettings{Prompt: true, Output: "ignored"},
		In:       strings.NewReader("demo\n"),
		Out:      &out,
	}
	got, err := n.Path("gif")
	require.NoError(t, err)
	assert.Equal(t, "demo.gif", got)
	assert.Equal(t, "Output file name [t.gif]: ", out.String())

	n.In = strings.NewReader("\n")
	got, err = n.Path("gif")
	require.NoError(t, err)
	assert.Equal(t, "ignored.gif", got, "empty answer keeps the configured name")
}
