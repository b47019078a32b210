package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseKeyValueLines(t *testing.T) {
	kv := ParseKeyValueLines("Name:\tbash\nUid:\t1000\t1000\t1000\t1000\nVmSwap:\t     12 kB\n\n")
	assert.Equal(t, "bash", kv["Name"])
	assert.Equal(t, "1000\t1000\t1000\t1000", kv["Uid"])
	assert.Equal(t, uint64(12), ParseUint64(kv["VmSwap"]))
}

func TestSplitNul(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", []string{}},
		{"trailing nul", "ls\x00-l\x00", []string{"ls", "-l"}},
		{"no trailing nul", "a\x00b", []string{"a", "b"}},
		{"double nul", "a\x00\x00b\x00", []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitNul([]byte(tt.in), nil)
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDelta(t *testing.T) {
	assert.Equal(t, uint64(5), Delta(10, 15))
	assert.Equal(t, uint64(0), Delta(15, 10))
	assert.Equal(t, 50.0, Pct(1, 2))
	assert.Equal(t, 0.0, Pct(1, 0))
}
