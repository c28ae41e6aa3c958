package input

import (
	"fmt"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/bryanchriswhite/snapreel/internal/logger"
)

// X11State polls the X server keymap and pointer.
type X11State struct {
	conn  *xgb.Conn
	root  xproto.Window
	codes map[uint32][]xproto.Keycode
}

// NewX11State builds the keysym to keycode table from the server's keyboard
// mapping. The connection is only read from and may be shared.
func NewX11State(conn *xgb.Conn) (*X11State, error) {
	setup := xproto.Setup(conn)
	screen := setup.DefaultScreen(conn)

	first, last := setup.MinKeycode, setup.MaxKeycode
	reply, err := xproto.GetKeyboardMapping(conn, first, byte(last-first+1)).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get keyboard mapping: %w", err)
	}

	s := &X11State{
		conn:  conn,
		root:  screen.Root,
		codes: make(map[uint32][]xproto.Keycode),
	}
	per := int(reply.KeysymsPerKeycode)
	if per == 0 {
		return nil, fmt.Errorf("keyboard mapping has no keysyms")
	}
	for i := 0; i*per < len(reply.Keysyms); i++ {
		code := xproto.Keycode(int(first) + i)
		for _, sym := range reply.Keysyms[i*per : (i+1)*per] {
			if sym == 0 {
				continue
			}
			s.codes[uint32(sym)] = append(s.codes[uint32(sym)], code)
		}
	}

	logger.WithComponent("input").Debug().
		Int("keysyms", len(s.codes)).
		Int("keysyms_per_keycode", per).
		Msg("Keyboard mapping loaded")
	return s, nil
}

// pressedFunc snapshots the keymap and returns a lookup over it.
func (s *X11State) pressedFunc() func(Key) bool {
	reply, err := xproto.QueryKeymap(s.conn).Reply()
	if err != nil {
		logger.WithComponent("input").Debug().Err(err).Msg("QueryKeymap failed")
		return func(Key) bool { return false }
	}
	keys := reply.Keys
	return func(k Key) bool {
		for _, code := range s.codes[k.Keysym()] {
			idx := int(code) / 8
			if idx < len(keys) && keys[idx]&(1<<(uint(code)%8)) != 0 {
				return true
			}
		}
		return false
	}
}

func (s *X11State) CheckActionKeys(keys ActionKeys) bool {
	return keys.Matches(s.pressedFunc())
}

func (s *X11State) CheckCancelKeys() bool {
	return CancelMatches(s.pressedFunc())
}

func (s *X11State) CheckMouseClick() bool {
	reply, err := xproto.QueryPointer(s.conn, s.root).Reply()
	if err != nil {
		logger.WithComponent("input").Debug().Err(err).Msg("QueryPointer failed")
		return false
	}
	return reply.Mask&(xproto.KeyButMaskButton1|xproto.KeyButMaskButton3) != 0
}
