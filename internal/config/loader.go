package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bryanchriswhite/snapreel/internal/errs"
	"github.com/bryanchriswhite/snapreel/internal/input"
	"github.com/bryanchriswhite/snapreel/internal/logger"
	"github.com/bryanchriswhite/snapreel/internal/raster"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/ini.v1"
)

// EnvPrefix prefixes every environment override: SNAPREEL_<SECTION>_<NAME>.
const EnvPrefix = "SNAPREEL"

const defaultCountdown = 3

// defaults holds the built-in value of every setting, keyed <section>.<name>.
var defaults = map[string]any{
	"general.log-level": "",

	"edit.crop":       "",
	"edit.resize":     "",
	"edit.ratio":      1.0,
	"edit.flip":       "",
	"edit.rotate":     0,
	"edit.blur":       0.0,
	"edit.grayscale":  false,
	"edit.invert":     false,
	"edit.brightness": 0,
	"edit.hue":        0,
	"edit.contrast":   0.0,

	"save.output":    "",
	"save.date":      "",
	"save.timestamp": false,
	"save.prompt":    false,

	"png.compression": "default",
	"jpg.quality":     90,
	"pnm.format":      "pixmap",

	"split.dir":      "",
	"view.width":     80,
	"analyze.colors": 5,
}

func init() {
	for _, section := range []string{"record", "capture"} {
		defaults[section+".fps"] = 20
		defaults[section+".action-keys"] = input.DefaultActionKeys
		defaults[section+".no-keys"] = false
		defaults[section+".duration"] = ""
		defaults[section+".alpha"] = false
		defaults[section+".root"] = false
		defaults[section+".focus"] = false
		defaults[section+".size"] = ""
		defaults[section+".padding"] = ""
		defaults[section+".color"] = "FF00FF"
		defaults[section+".border"] = 1
		defaults[section+".no-border"] = false
		defaults[section+".timeout"] = "60"
		defaults[section+".interval"] = 10
	}
	for _, section := range []string{"gif", "apng"} {
		anim := DefaultAnimSettings()
		defaults[section+".fps"] = int(anim.FPS)
		defaults[section+".quality"] = int(anim.Quality)
		defaults[section+".repeat"] = int(anim.Repeat)
		defaults[section+".speed"] = float64(anim.Speed)
		defaults[section+".cut-beginning"] = 0.0
		defaults[section+".cut-end"] = 0.0
		defaults[section+".fast"] = false
	}
}

// Loader resolves settings with precedence flag > environment > config file > default.
type Loader struct {
	v    *viper.Viper
	path string
}

// DefaultPath returns $XDG_CONFIG_HOME/snapreel/snapreel.conf, falling back
// to ~/.config.
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "snapreel", "snapreel.conf")
}

// NewLoader reads the INI file at path, or the default path when empty. A
// missing default file is fine; a missing explicit file is a config error.
func NewLoader(path string) (*Loader, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	l := &Loader{v: v, path: path}
	if path == "" {
		return l, nil
	}
	if err := l.mergeINI(path); err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			logger.WithComponent("config").Debug().
				Str("path", path).
				Msg("Config file not found, using defaults")
			return l, nil
		}
		return nil, errs.Config("failed to read config %s: %v", path, err)
	}

	logger.WithComponent("config").Debug().
		Str("path", path).
		Msg("Config loaded")
	return l, nil
}

// mergeINI merges every INI section into viper as a nested map. Keys outside
// any section land in [general].
func (l *Loader) mergeINI(path string) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}
	file, err := ini.Load(path)
	if err != nil {
		return err
	}
	tree := make(map[string]any)
	for _, section := range file.Sections() {
		keys := section.KeysHash()
		if len(keys) == 0 {
			continue
		}
		name := strings.ToLower(section.Name())
		if section.Name() == ini.DefaultSection {
			name = "general"
		}
		values := make(map[string]any, len(keys))
		for k, value := range keys {
			values[strings.ToLower(k)] = value
		}
		tree[name] = values
	}
	return l.v.MergeConfigMap(tree)
}

// Path returns the config file path in use.
func (l *Loader) Path() string { return l.path }

// Viper exposes the underlying resolver.
func (l *Loader) Viper() *viper.Viper { return l.v }

// BindFlags binds every flag in fs under section, so --fps on the record
// command resolves record.fps.
func (l *Loader) BindFlags(section string, fs *pflag.FlagSet) error {
	var err error
	fs.VisitAll(func(f *pflag.Flag) {
		if err != nil || f.Name == "help" {
			return
		}
		if bindErr := l.v.BindPFlag(section+"."+f.Name, f); bindErr != nil {
			err = fmt.Errorf("failed to bind flag %s: %w", f.Name, bindErr)
		}
	})
	return err
}

// String returns a raw string setting.
func (l *Loader) String(key string) string { return l.v.GetString(key) }

// Int returns a raw integer setting.
func (l *Loader) Int(key string) int { return l.v.GetInt(key) }

// Bool returns a raw boolean setting.
func (l *Loader) Bool(key string) bool { return l.v.GetBool(key) }

// Edit builds the editor settings from the [edit] section.
func (l *Loader) Edit() (EditSettings, error) {
	s := DefaultEditSettings()
	var err error
	if s.Crop, err = raster.ParsePadding(l.v.GetString("edit.crop")); err != nil {
		return s, errs.Config("crop: %v", err)
	}
	if s.Resize, err = raster.ParseGeometry(l.v.GetString("edit.resize")); err != nil {
		return s, errs.Config("resize: %v", err)
	}
	if s.Flip, err = ParseFlip(l.v.GetString("edit.flip")); err != nil {
		return s, errs.Config("flip: %v", err)
	}
	s.Ratio = float32(l.v.GetFloat64("edit.ratio"))
	s.Rotate = l.v.GetInt("edit.rotate")
	s.Blur = float32(l.v.GetFloat64("edit.blur"))
	s.Grayscale = l.v.GetBool("edit.grayscale")
	s.Invert = l.v.GetBool("edit.invert")
	s.Brightness = l.v.GetInt32("edit.brightness")
	s.Hue = l.v.GetInt32("edit.hue")
	s.Contrast = float32(l.v.GetFloat64("edit.contrast"))
	return s, s.Validate()
}

// Anim builds animation settings from the [gif] or [apng] section.
func (l *Loader) Anim(section string) (AnimSettings, error) {
	s := AnimSettings{
		FPS:    l.v.GetUint32(section + ".fps"),
		Repeat: l.v.GetInt32(section + ".repeat"),
		Speed:  float32(l.v.GetFloat64(section + ".speed")),
		Cut: Cut{
			Begin: float32(l.v.GetFloat64(section + ".cut-beginning")),
			End:   float32(l.v.GetFloat64(section + ".cut-end")),
		},
		Fast: l.v.GetBool(section + ".fast"),
	}
	quality := l.v.GetInt(section + ".quality")
	if quality < 1 || quality > 100 {
		return s, errs.Config("quality must be within 1..100, got %d", quality)
	}
	s.Quality = uint8(quality)
	return s, s.Validate()
}

// Record builds recording settings from the [record] or [capture] section.
// The countdown defaults to 0 when a command is given and no countdown was
// set explicitly.
func (l *Loader) Record(section string, command []string) (RecordSettings, error) {
	s := RecordSettings{
		FPS:     l.v.GetUint32(section + ".fps"),
		NoKeys:  l.v.GetBool(section + ".no-keys"),
		Alpha:   l.v.GetBool(section + ".alpha"),
		Command: command,
	}
	var err error
	if s.ActionKeys, err = input.ParseActionKeys(l.v.GetString(section + ".action-keys")); err != nil {
		return s, errs.Config("action keys: %v", err)
	}
	if s.Duration, err = ParseSeconds(l.v.GetString(section + ".duration")); err != nil {
		return s, errs.Config("duration: %v", err)
	}

	switch {
	case l.v.IsSet(section + ".countdown"):
		s.Countdown = l.v.GetUint32(section + ".countdown")
	case len(command) > 0:
		s.Countdown = 0
	default:
		s.Countdown = defaultCountdown
	}

	sel := &s.Select
	sel.Root = l.v.GetBool(section + ".root")
	sel.Focus = l.v.GetBool(section + ".focus")
	sel.NoBorder = l.v.GetBool(section + ".no-border")
	sel.Border = l.v.GetUint32(section + ".border")
	if sel.Size, err = raster.ParseGeometry(l.v.GetString(section + ".size")); err != nil {
		return s, errs.Config("size: %v", err)
	}
	if sel.Padding, err = raster.ParsePadding(l.v.GetString(section + ".padding")); err != nil {
		return s, errs.Config("padding: %v", err)
	}
	if sel.Color, err = ParseHexColor(l.v.GetString(section + ".color")); err != nil {
		return s, errs.Config("color: %v", err)
	}
	if sel.Timeout, err = ParseSeconds(l.v.GetString(section + ".timeout")); err != nil {
		return s, errs.Config("timeout: %v", err)
	}
	sel.Interval = time.Duration(l.v.GetInt64(section+".interval")) * time.Millisecond
	return s, s.Validate()
}

// Save builds the output naming settings from the [save] section.
func (l *Loader) Save() SaveSettings {
	return SaveSettings{
		Output:     l.v.GetString("save.output"),
		DateFormat: l.v.GetString("save.date"),
		Timestamp:  l.v.GetBool("save.timestamp"),
		Prompt:     l.v.GetBool("save.prompt"),
	}
}
