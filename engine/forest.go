package engine

import "sort"

// Entry is a window's view of one task: forest placement and fold
// state live here so the shared frame stays untouched.
type Entry struct {
	Task   *Task
	Depth  int
	Hidden bool    // inside a collapsed subtree
	Folded bool    // root of a collapsed subtree with descendants
	Extra  float64 // %CPU of hidden descendants, shown on the folded root
}

// ForestBuilder orders tasks as a parent/child tree. Its scratch
// storage is reused between frames.
type ForestBuilder struct {
	order    []*Task
	index    map[int]int
	children [][]int
	visited  []bool
	isRoot   []bool
	stack    []forestItem
	out      []Entry
	byPID    map[int]int
}

type forestItem struct {
	idx   int
	depth int
}

// Build returns tasks in forest order: roots by start time, each
// followed depth-first by its descendants. A thread that is not its
// group leader hangs under the leader; a leader hangs under its parent.
// Parent loops are broken by emitting each task once. collapsed holds
// pids whose subtrees are folded (positive) or explicitly open
// (negative).
func (f *ForestBuilder) Build(tasks []*Task, collapsed []int) []Entry {
	n := len(tasks)
	f.order = append(f.order[:0], tasks...)
	sort.SliceStable(f.order, func(i, j int) bool {
		a, b := f.order[i], f.order[j]
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		return a.PID < b.PID
	})

	if f.index == nil {
		f.index = make(map[int]int, n)
		f.byPID = make(map[int]int, n)
	}
	clear(f.index)
	for i, t := range f.order {
		f.index[t.PID] = i
	}
	if cap(f.children) < n {
		f.children = make([][]int, n)
	}
	f.children = f.children[:n]
	for i := range f.children {
		f.children[i] = f.children[i][:0]
	}
	if cap(f.visited) < n {
		f.visited = make([]bool, n)
		f.isRoot = make([]bool, n)
	}
	f.visited, f.isRoot = f.visited[:n], f.isRoot[:n]
	clear(f.visited)

	parent := func(t *Task) int {
		key := t.PPID
		if !t.IsLeader() {
			key = t.TGID
		}
		if key == t.PID {
			return -1
		}
		if j, ok := f.index[key]; ok {
			return j
		}
		return -1
	}
	for i, t := range f.order {
		p := parent(t)
		f.isRoot[i] = p < 0
		if p >= 0 {
			f.children[p] = append(f.children[p], i)
		}
	}

	f.out = f.out[:0]
	for i := range f.order {
		if f.isRoot[i] {
			f.walk(i)
		}
	}
	// anything left sits on a parent cycle
	for i := range f.order {
		if !f.visited[i] {
			f.walk(i)
		}
	}
	f.fold(collapsed)
	return f.out
}

func (f *ForestBuilder) walk(root int) {
	f.stack = append(f.stack[:0], forestItem{idx: root})
	for len(f.stack) > 0 {
		it := f.stack[len(f.stack)-1]
		f.stack = f.stack[:len(f.stack)-1]
		if f.visited[it.idx] {
			continue
		}
		f.visited[it.idx] = true
		f.out = append(f.out, Entry{Task: f.order[it.idx], Depth: it.depth})
		kids := f.children[it.idx]
		for k := len(kids) - 1; k >= 0; k-- {
			if !f.visited[kids[k]] {
				f.stack = append(f.stack, forestItem{idx: kids[k], depth: it.depth + 1})
			}
		}
	}
}

func (f *ForestBuilder) fold(collapsed []int) {
	if len(collapsed) == 0 {
		return
	}
	clear(f.byPID)
	for i := range f.out {
		f.byPID[f.out[i].Task.PID] = i
	}
	for _, pid := range collapsed {
		if pid <= 0 {
			continue
		}
		k, ok := f.byPID[pid]
		if !ok {
			continue
		}
		root := &f.out[k]
		for j := k + 1; j < len(f.out) && f.out[j].Depth > root.Depth; j++ {
			f.out[j].Hidden = true
			root.Extra += f.out[j].Task.PCPU
			root.Folded = true
		}
	}
}

// ToggleCollapse flips pid's fold state in list and returns the list.
// A pid never seen before becomes collapsed.
func ToggleCollapse(list []int, pid int) []int {
	for i, v := range list {
		switch v {
		case pid, -pid:
			list[i] = -v
			return list
		}
	}
	return append(list, pid)
}

// IsCollapsed reports whether pid is folded in list.
func IsCollapsed(list []int, pid int) bool {
	for _, v := range list {
		if v == pid {
			return true
		}
	}
	return false
}
