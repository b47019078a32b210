package fields

import (
	"testing"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"

	"github.com/ftahirops/ptop/model"
)

func displayWidth(s string) int { return runewidth.StringWidth(s) }

func TestCodeRoundTrip(t *testing.T) {
	for id := ID(0); id < Count; id++ {
		for _, on := range []bool{true, false} {
			got, gotOn, ok := FromCode(id.Code(on))
			assert.True(t, ok)
			assert.Equal(t, id, got)
			assert.Equal(t, on, gotOn)
		}
	}
	_, _, ok := FromCode('#')
	assert.False(t, ok)
}

func TestDefaultStringCoversEveryField(t *testing.T) {
	s := DefaultString()
	assert.Len(t, s, int(Count))
	seen := map[ID]bool{}
	for i := 0; i < len(s); i++ {
		id, _, ok := FromCode(s[i])
		assert.True(t, ok)
		assert.False(t, seen[id], "duplicate %s", id)
		seen[id] = true
	}
}

func TestRequiredSectionsIsLazy(t *testing.T) {
	assert.Equal(t, model.Sections(0), RequiredSections(PID, CPU, Mem, TimePlus, Virt, Res))
	got := RequiredSections(PID, User, Environ)
	assert.True(t, got.Has(model.SecStatus|model.SecUser|model.SecEnviron))
	assert.False(t, got.Has(model.SecCmdline))
}

func TestCatalogWiden(t *testing.T) {
	c := NewCatalog()
	assert.Equal(t, 7, c.Width(PID))
	assert.True(t, c.Widen(PID))
	assert.True(t, c.Widen(PID))
	assert.True(t, c.Widen(PID))
	assert.Equal(t, 7, c.Width(PID), "width holds until recalibration")
	assert.True(t, c.TakeDirty())
	assert.Equal(t, 8, c.Width(PID), "one column however many cuts")
	assert.False(t, c.TakeDirty())
	assert.Equal(t, 8, c.Width(PID))

	assert.False(t, c.Widen(Command), "variable fields never widen")
	assert.False(t, c.Widen(Res), "memory fields rescale instead")

	c.Reset()
	assert.Equal(t, 7, c.Width(PID))
}

func TestByName(t *testing.T) {
	id, ok := ByName("%cpu")
	assert.True(t, ok)
	assert.Equal(t, CPU, id)
	_, ok = ByName("bogus")
	assert.False(t, ok)
}
