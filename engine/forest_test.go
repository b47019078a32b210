package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkTasks(specs ...[4]int) []*Task {
	// pid, ppid, tgid, start
	out := make([]*Task, len(specs))
	for i, sp := range specs {
		t := &Task{}
		t.PID, t.PPID, t.TGID, t.StartTime = sp[0], sp[1], sp[2], uint64(sp[3])
		out[i] = t
	}
	return out
}

func order(entries []Entry) (pids, depths []int) {
	for _, e := range entries {
		pids = append(pids, e.Task.PID)
		depths = append(depths, e.Depth)
	}
	return pids, depths
}

func TestForestOrdersByStartTime(t *testing.T) {
	// pid 900 wrapped around and started before pid 5
	tasks := mkTasks(
		[4]int{5, 1, 5, 300},
		[4]int{1, 0, 1, 10},
		[4]int{900, 1, 900, 100},
		[4]int{7, 900, 7, 200},
	)
	var fb ForestBuilder
	pids, depths := order(fb.Build(tasks, nil))
	assert.Equal(t, []int{1, 900, 7, 5}, pids)
	assert.Equal(t, []int{0, 1, 2, 1}, depths)
}

func TestForestThreadsHangUnderLeader(t *testing.T) {
	tasks := mkTasks(
		[4]int{1, 0, 1, 1},
		[4]int{50, 1, 50, 5},
		[4]int{51, 1, 50, 6}, // thread of 50; ppid points at 1
		[4]int{60, 50, 60, 7},
	)
	var fb ForestBuilder
	pids, depths := order(fb.Build(tasks, nil))
	assert.Equal(t, []int{1, 50, 51, 60}, pids)
	assert.Equal(t, []int{0, 1, 2, 2}, depths)
}

func TestForestOrphansAndCycles(t *testing.T) {
	tasks := mkTasks(
		[4]int{10, 99, 10, 1}, // parent not in frame
		[4]int{20, 30, 20, 2},
		[4]int{30, 20, 30, 3}, // 20 <-> 30 loop
	)
	var fb ForestBuilder
	entries := fb.Build(tasks, nil)
	pids, _ := order(entries)
	assert.ElementsMatch(t, []int{10, 20, 30}, pids, "every task exactly once")
	assert.Equal(t, 10, pids[0])
}

func TestForestCollapseSumsHiddenCPU(t *testing.T) {
	tasks := mkTasks(
		[4]int{1, 0, 1, 1},
		[4]int{2, 1, 2, 2},
		[4]int{3, 2, 3, 3},
		[4]int{4, 2, 4, 4},
		[4]int{5, 1, 5, 5},
	)
	cpu := map[int]float64{1: 1, 2: 2.5, 3: 10, 4: 0.25, 5: 7}
	for _, t := range tasks {
		t.PCPU = cpu[t.PID]
	}
	var fb ForestBuilder
	entries := fb.Build(tasks, []int{2, -5})
	require.Len(t, entries, 5)

	var root *Entry
	hiddenSum := 0.0
	for i := range entries {
		e := &entries[i]
		switch {
		case e.Task.PID == 2:
			root = e
		case e.Hidden:
			hiddenSum += e.Task.PCPU
		}
	}
	require.NotNil(t, root)
	assert.True(t, root.Folded)
	assert.False(t, root.Hidden)
	assert.InDelta(t, hiddenSum, root.Extra, 1e-9)
	assert.InDelta(t, 10.25, root.Extra, 1e-9)
	for _, e := range entries {
		if e.Task.PID == 5 || e.Task.PID == 1 {
			assert.False(t, e.Hidden)
			assert.Zero(t, e.Extra)
		}
	}
}

func TestForestNestedCollapse(t *testing.T) {
	tasks := mkTasks(
		[4]int{1, 0, 1, 1},
		[4]int{2, 1, 2, 2},
		[4]int{3, 2, 3, 3},
	)
	tasks[1].PCPU, tasks[2].PCPU = 4, 6
	var fb ForestBuilder
	entries := fb.Build(tasks, []int{2, 1})
	assert.InDelta(t, 10, entries[0].Extra, 1e-9)
	assert.True(t, entries[1].Hidden)
	assert.True(t, entries[2].Hidden)
}

func TestToggleCollapse(t *testing.T) {
	var l []int
	l = ToggleCollapse(l, 42)
	assert.Equal(t, []int{42}, l)
	assert.True(t, IsCollapsed(l, 42))
	l = ToggleCollapse(l, 42)
	assert.Equal(t, []int{-42}, l)
	assert.False(t, IsCollapsed(l, 42))
	l = ToggleCollapse(l, 42)
	assert.Equal(t, []int{42}, l)
	l = ToggleCollapse(l, 7)
	assert.Equal(t, []int{42, 7}, l)
}

func TestForestReusesScratch(t *testing.T) {
	var fb ForestBuilder
	big := mkTasks([4]int{1, 0, 1, 1}, [4]int{2, 1, 2, 2}, [4]int{3, 1, 3, 3})
	fb.Build(big, nil)
	small := mkTasks([4]int{8, 0, 8, 1})
	pids, depths := order(fb.Build(small, nil))
	assert.Equal(t, []int{8}, pids)
	assert.Equal(t, []int{0}, depths)
}
