package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFitMem(t *testing.T) {
	tests := []struct {
		name  string
		kib   uint64
		start Unit
		width int
		want  string
	}{
		{"fits as KiB", 2048, KiB, 6, "  2048"},
		{"escalates to MiB", 1500000, KiB, 6, " 1465m"},
		{"keeps precision when room", 1500000, KiB, 9, "1464.844m"},
		{"starts at GiB", 1048576, GiB, 6, "1.000g"},
		{"tiny value at MiB", 512, MiB, 6, "0.500m"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, cut := FitMem(tt.kib, tt.start, tt.width, false)
			assert.Equal(t, tt.want, got)
			assert.False(t, cut)
			assert.Len(t, got, tt.width)
		})
	}
}

func TestFitTics(t *testing.T) {
	tests := []struct {
		name  string
		tics  uint64
		width int
		want  string
	}{
		{"hundredths", 12345, 9, "  2:03.45"},
		{"minutes seconds", 12345, 5, " 2:03"},
		{"hours", 100 * 3600 * 5, 5, " 5,00"},
		{"days", 100 * 3600 * 24 * 5, 5, "5d+0h"},
		{"weeks", 100 * 3600 * 24 * 7 * 3, 5, "3w+0d"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, cut := FitTics(tt.tics, 100, tt.width, false)
			assert.False(t, cut)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFitPct(t *testing.T) {
	got, cut := FitPct(12.34, 5, false)
	assert.Equal(t, " 12.3", got)
	assert.False(t, cut)

	got, cut = FitPct(1234.4, 5, false)
	assert.Equal(t, " 1234", got)
	assert.False(t, cut)

	got, cut = FitPct(123456, 5, false)
	assert.Equal(t, "    +", got)
	assert.True(t, cut)
}

func TestFitTextUsesDisplayColumns(t *testing.T) {
	got, cut := FitText("日本語テキスト", 6, true)
	assert.True(t, cut)
	assert.Equal(t, 6, displayWidth(got))
	assert.Contains(t, got, Overflow)

	got, cut = FitText("abc", 6, true)
	assert.False(t, cut)
	assert.Equal(t, "abc   ", got)
}

func TestFitTicsOverflow(t *testing.T) {
	got, cut := FitTics(100*3600*24*7*20, 100, 5, false)
	assert.True(t, cut)
	assert.Equal(t, "    +", got)
}

func TestFitNumOverflow(t *testing.T) {
	got, cut := FitNum(1234567, 5, false)
	assert.True(t, cut)
	assert.Equal(t, "    +", got)
}

func TestFitCount(t *testing.T) {
	got, cut := FitCount(123456, 4, false)
	assert.False(t, cut)
	assert.Equal(t, "121k", got)
}

func TestTTYName(t *testing.T) {
	assert.Equal(t, "?", TTYName(0))
	assert.Equal(t, "pts/3", TTYName(136<<8|3))
	assert.Equal(t, "tty1", TTYName(4<<8|1))
}
