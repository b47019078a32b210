package tty

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeKeys(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"letters", "qP<", []string{"q", "P", "<"}},
		{"enter and backspace", "a\r\x7f", []string{"a", "enter", "backspace"}},
		{"line feed", "\n", []string{"ctrl+j"}},
		{"nul", "\x00\t", []string{"ctrl+@", "tab"}},
		{"control", "\x03\x0f\x15", []string{"ctrl+c", "ctrl+o", "ctrl+u"}},
		{"arrows", "\x1b[A\x1b[B\x1b[C\x1b[D", []string{"up", "down", "right", "left"}},
		{"app mode arrows", "\x1bOA\x1bOD", []string{"up", "left"}},
		{"paging", "\x1b[5~\x1b[6~\x1b[1~\x1b[4~\x1b[H\x1b[F", []string{"pgup", "pgdown", "home", "end", "home", "end"}},
		{"lone escape", "\x1b", []string{"esc"}},
		{"escape before a sequence", "\x1b\x1b[A", []string{"alt+up"}},
		{"modified arrow", "\x1b[1;5C", []string{"ctrl+right"}},
		{"insert and delete", "\x1b[2~\x1b[3~", []string{"insert", "delete"}},
		{"alt", "\x1bx", []string{"alt+x"}},
		{"unknown csi dropped", "\x1b[99;5zq", []string{"q"}},
		{"utf8", "é", []string{"é"}},
		{"space", " ", []string{" "}},
		{"alt bracket", "\x1b[", []string{"alt+["}},
		{"empty", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DecodeKeys([]byte(tt.in)))
		})
	}
}
