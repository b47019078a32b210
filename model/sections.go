package model

import "strings"

// Sections is the set of raw data groups a frame must fetch for every
// task. The stat line is always read.
type Sections uint32

const (
	SecStatm     Sections = 1 << iota // shared memory
	SecStatus                         // credentials, swap, supplementary gids
	SecUser                           // resolve user names
	SecGroup                          // resolve group names
	SecCmdline                        // full argv
	SecEnviron                        // environment
	SecNamespace                      // namespace inodes
	SecThreads                        // one sample per thread
)

var sectionNames = []string{"statm", "status", "user", "group", "cmdline", "environ", "ns", "threads"}

// Has reports whether every bit in want is set.
func (s Sections) Has(want Sections) bool { return s&want == want }

func (s Sections) String() string {
	var parts []string
	for i, name := range sectionNames {
		if s&(1<<i) != 0 {
			parts = append(parts, name)
		}
	}
	if len(parts) == 0 {
		return "stat"
	}
	return "stat|" + strings.Join(parts, "|")
}
