package input

import (
	"fmt"
	"strings"
)

// Key is a canonical key name such as "LAlt", "S" or "Enter".
type Key string

// keysyms maps canonical key names to X11 keysyms.
var keysyms = map[Key]uint32{
	"Enter":     0xff0d,
	"Escape":    0xff1b,
	"Space":     0x0020,
	"Tab":       0xff09,
	"Backspace": 0xff08,
	"Delete":    0xffff,
	"Insert":    0xff63,
	"Home":      0xff50,
	"End":       0xff57,
	"PageUp":    0xff55,
	"PageDown":  0xff56,
	"Left":      0xff51,
	"Up":        0xff52,
	"Right":     0xff53,
	"Down":      0xff54,
	"LShift":    0xffe1,
	"RShift":    0xffe2,
	"LControl":  0xffe3,
	"RControl":  0xffe4,
	"LAlt":      0xffe9,
	"RAlt":      0xffea,
	"LMeta":     0xffeb,
	"RMeta":     0xffec,
}

// canonical maps a lowercased name or alias to its canonical Key.
var canonical = map[string]Key{
	"return":   "Enter",
	"esc":      "Escape",
	"lctrl":    "LControl",
	"rctrl":    "RControl",
	"lsuper":   "LMeta",
	"rsuper":   "RMeta",
	"pgup":     "PageUp",
	"pgdown":   "PageDown",
	"del":      "Delete",
	"back":     "Backspace",
	"spacebar": "Space",
}

func init() {
	for c := 'A'; c <= 'Z'; c++ {
		keysyms[Key(string(c))] = uint32(c - 'A' + 'a')
	}
	for c := '0'; c <= '9'; c++ {
		keysyms[Key(string(c))] = uint32(c)
	}
	for i := 1; i <= 12; i++ {
		keysyms[Key(fmt.Sprintf("F%d", i))] = 0xffbe + uint32(i-1)
	}
	for k := range keysyms {
		canonical[strings.ToLower(string(k))] = k
	}
}

// ParseKey resolves a key name case-insensitively.
func ParseKey(name string) (Key, error) {
	k, ok := canonical[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", fmt.Errorf("unknown key %q", name)
	}
	return k, nil
}

// Keysym returns the X11 keysym for k.
func (k Key) Keysym() uint32 { return keysyms[k] }

// ActionKeys is a chord: the main key plus any one of the alternatives.
type ActionKeys struct {
	Main         Key
	Alternatives []Key
}

// DefaultActionKeys is the chord used when none is configured.
const DefaultActionKeys = "LAlt-S/Enter"

// ParseActionKeys parses "MAIN-ALT1/ALT2". At least one alternative is
// required.
func ParseActionKeys(s string) (ActionKeys, error) {
	var ak ActionKeys
	mainName, alts, hasAlts := strings.Cut(strings.TrimSpace(s), "-")
	main, err := ParseKey(mainName)
	if err != nil {
		return ak, fmt.Errorf("invalid action keys %q: %w", s, err)
	}
	ak.Main = main
	if !hasAlts {
		return ak, fmt.Errorf("invalid action keys %q: expected MAIN-ALT1/ALT2", s)
	}
	for _, name := range strings.Split(alts, "/") {
		k, err := ParseKey(name)
		if err != nil {
			return ak, fmt.Errorf("invalid action keys %q: %w", s, err)
		}
		ak.Alternatives = append(ak.Alternatives, k)
	}
	return ak, nil
}

func (ak ActionKeys) String() string {
	if len(ak.Alternatives) == 0 {
		return string(ak.Main)
	}
	alts := make([]string, len(ak.Alternatives))
	for i, k := range ak.Alternatives {
		alts[i] = string(k)
	}
	return string(ak.Main) + "-" + strings.Join(alts, "/")
}

// Matches reports whether the main key and one of the alternatives are held
// according to pressed.
func (ak ActionKeys) Matches(pressed func(Key) bool) bool {
	if ak.Main == "" || !pressed(ak.Main) {
		return false
	}
	for _, k := range ak.Alternatives {
		if pressed(k) {
			return true
		}
	}
	return false
}

// CancelMatches reports whether Escape or Ctrl+D is held.
func CancelMatches(pressed func(Key) bool) bool {
	if pressed("Escape") {
		return true
	}
	return pressed("D") && (pressed("LControl") || pressed("RControl"))
}
