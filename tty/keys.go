package tty

import (
	"bytes"
	"io"

	"github.com/charmbracelet/x/input"

	"github.com/ftahirops/ptop/util"
)

// inputFlags reads NUL as ctrl+@, the name bubbletea gives it.
const inputFlags = input.FlagCtrlAt

// keyNames turns decoded input events into key names spelled the way
// bubbletea names them ("up", "ctrl+c", "a"). Anything that is not a key
// press is dropped.
func keyNames(evs []input.Event, out []string) []string {
	for _, ev := range evs {
		if k, ok := ev.(input.KeyPressEvent); ok {
			if name := keyName(input.Key(k)); name != "" {
				out = append(out, name)
			}
		}
	}
	return out
}

func keyName(k input.Key) string {
	switch {
	case k.Code == input.KeySpace && k.Mod == 0:
		return " "
	case k.Text != "" && k.Mod&^input.ModShift == 0:
		return k.Text
	case k.Code == 0 && k.Text != "":
		// alt+[ and friends carry only text
		return "alt+" + k.Text
	case k.Code == 0:
		return ""
	}
	return k.String()
}

// DecodeKeys splits raw terminal input into key names.
func DecodeKeys(b []byte) []string {
	r, err := input.NewReader(bytes.NewReader(b), "", inputFlags)
	if err != nil {
		return nil
	}
	defer r.Close()
	var keys []string
	for {
		evs, err := r.ReadEvents()
		if err != nil {
			if err != io.EOF {
				util.Log.WithError(err).Debug("decode keys")
			}
			return keys
		}
		keys = keyNames(evs, keys)
	}
}
