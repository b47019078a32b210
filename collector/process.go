package collector

import (
	"io"
	"os"
	"os/user"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/ftahirops/ptop/model"
	"github.com/ftahirops/ptop/util"
)

// ProcSource reads per-task data from a procfs mount.
type ProcSource struct {
	Root string

	pageKB uint64
	users  map[uint32]string
	groups map[uint32]string
}

// NewProcSource returns a source reading root, "/proc" when empty.
func NewProcSource(root string) *ProcSource {
	if root == "" {
		root = "/proc"
	}
	return &ProcSource{
		Root:   root,
		pageKB: uint64(os.Getpagesize() / 1024),
		users:  make(map[uint32]string),
		groups: make(map[uint32]string),
	}
}

// Open lists the task directories. Failing to read the procfs root is
// fatal for the caller; tasks vanishing mid-pass are skipped silently.
func (p *ProcSource) Open(sections model.Sections, pids []int) (Stream, error) {
	entries, err := os.ReadDir(p.Root)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", p.Root)
	}
	var allow map[int]bool
	if len(pids) > 0 {
		allow = make(map[int]bool, len(pids))
		for _, pid := range pids {
			allow[pid] = true
		}
	}
	list := make([]int, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		pid := util.ParseInt(e.Name())
		if pid <= 0 || (allow != nil && !allow[pid]) {
			continue
		}
		list = append(list, pid)
	}
	sort.Ints(list)
	return &procStream{src: p, sections: sections, pids: list}, nil
}

type procStream struct {
	src      *ProcSource
	sections model.Sections
	pids     []int
	next     int

	// threads of the current process still to be read
	tgid  int
	tasks []int

	sample model.ProcessSample
}

func (s *procStream) Next() (*model.ProcessSample, error) {
	for {
		if len(s.tasks) > 0 {
			tid := s.tasks[0]
			s.tasks = s.tasks[1:]
			dir := filepath.Join(s.src.Root, strconv.Itoa(s.tgid), "task", strconv.Itoa(tid))
			if s.src.readTask(dir, s.tgid, s.sections, &s.sample) == nil {
				return &s.sample, nil
			}
			continue
		}
		if s.next >= len(s.pids) {
			return nil, io.EOF
		}
		pid := s.pids[s.next]
		s.next++
		if s.sections.Has(model.SecThreads) {
			s.tgid = pid
			s.tasks = s.src.listTasks(pid, s.tasks[:0])
			if len(s.tasks) > 0 {
				continue
			}
		}
		dir := filepath.Join(s.src.Root, strconv.Itoa(pid))
		if err := s.src.readTask(dir, pid, s.sections, &s.sample); err != nil {
			util.Log.WithField("pid", pid).Debugf("skip task: %v", err)
			continue
		}
		return &s.sample, nil
	}
}

func (s *procStream) Close() error {
	s.pids, s.tasks = nil, nil
	return nil
}

func (p *ProcSource) listTasks(pid int, into []int) []int {
	entries, err := os.ReadDir(filepath.Join(p.Root, strconv.Itoa(pid), "task"))
	if err != nil {
		return into
	}
	for _, e := range entries {
		if tid := util.ParseInt(e.Name()); tid > 0 {
			into = append(into, tid)
		}
	}
	sort.Ints(into)
	return into
}

func (p *ProcSource) readTask(dir string, tgid int, sections model.Sections, pm *model.ProcessSample) error {
	pm.Reset()
	content, err := util.ReadFileString(filepath.Join(dir, "stat"))
	if err != nil {
		return err
	}
	if err := parseStat(content, p.pageKB, pm); err != nil {
		return err
	}
	pm.TGID = tgid
	if sections.Has(model.SecStatm) {
		p.readStatm(dir, pm)
	}
	if sections&(model.SecStatus|model.SecUser|model.SecGroup) != 0 {
		p.readStatus(dir, sections, pm)
	}
	if sections.Has(model.SecCmdline) {
		if data, err := os.ReadFile(filepath.Join(dir, "cmdline")); err == nil {
			pm.CmdLine = util.SplitNul(data, pm.CmdLine)
		}
	}
	if sections.Has(model.SecEnviron) {
		if data, err := os.ReadFile(filepath.Join(dir, "environ")); err == nil {
			pm.Environ = util.SplitNul(data, pm.Environ)
		}
	}
	if sections.Has(model.SecNamespace) {
		pm.NsPID = readNsInode(filepath.Join(dir, "ns", "pid"))
	}
	return nil
}

// parseStat fills pm from a /proc/[pid]/stat line. comm may contain
// spaces and parens, so the last ')' splits it from the numeric fields.
func parseStat(content string, pageKB uint64, pm *model.ProcessSample) error {
	openIdx := strings.Index(content, "(")
	closeIdx := strings.LastIndex(content, ")")
	if openIdx < 0 || closeIdx < openIdx || closeIdx+2 > len(content) {
		return errors.New("bad stat format")
	}
	pm.PID = util.ParseInt(content[:openIdx])
	pm.Comm = content[openIdx+1 : closeIdx]
	rest := strings.Fields(content[closeIdx+1:])
	if len(rest) < 22 {
		return errors.New("stat too short")
	}
	if len(rest[0]) > 0 {
		pm.State = rest[0][0]
	}
	pm.PPID = util.ParseInt(rest[1])
	pm.PGRP = util.ParseInt(rest[2])
	pm.SID = util.ParseInt(rest[3])
	pm.TTY = util.ParseInt(rest[4])
	pm.MinFault = util.ParseUint64(rest[7])
	pm.MajFault = util.ParseUint64(rest[9])
	pm.UTime = util.ParseUint64(rest[11])
	pm.STime = util.ParseUint64(rest[12])
	pm.CUTime = util.ParseUint64(rest[13])
	pm.CSTime = util.ParseUint64(rest[14])
	pm.Priority = util.ParseInt(rest[15])
	pm.Nice = util.ParseInt(rest[16])
	pm.NumThreads = util.ParseInt(rest[17])
	pm.StartTime = util.ParseUint64(rest[19])
	pm.VirtKB = util.ParseUint64(rest[20]) / 1024
	pm.ResKB = util.ParseUint64(rest[21]) * pageKB
	if len(rest) > 36 {
		pm.Processor = util.ParseInt(rest[36])
	}
	return nil
}

func (p *ProcSource) readStatm(dir string, pm *model.ProcessSample) {
	content, err := util.ReadFileString(filepath.Join(dir, "statm"))
	if err != nil {
		return
	}
	f := strings.Fields(content)
	if len(f) >= 3 {
		pm.ShareKB = util.ParseUint64(f[2]) * p.pageKB
	}
}

func (p *ProcSource) readStatus(dir string, sections model.Sections, pm *model.ProcessSample) {
	kv, err := util.ParseKeyValueFile(filepath.Join(dir, "status"))
	if err != nil {
		return
	}
	if ids := strings.Fields(kv["Uid"]); len(ids) >= 2 {
		pm.RUID = uint32(util.ParseUint64(ids[0]))
		pm.EUID = uint32(util.ParseUint64(ids[1]))
	}
	if ids := strings.Fields(kv["Gid"]); len(ids) >= 2 {
		pm.EGID = uint32(util.ParseUint64(ids[1]))
	}
	pm.SwapKB = util.ParseUint64(kv["VmSwap"])
	if sections.Has(model.SecUser) {
		pm.EUser = p.userName(pm.EUID)
		pm.RUser = p.userName(pm.RUID)
	}
	if sections.Has(model.SecGroup) {
		pm.EGroup = p.groupName(pm.EGID)
		for _, g := range strings.Fields(kv["Groups"]) {
			pm.SupGroups = append(pm.SupGroups, p.groupName(uint32(util.ParseUint64(g))))
		}
	}
}

func (p *ProcSource) userName(uid uint32) string {
	if name, ok := p.users[uid]; ok {
		return name
	}
	name := strconv.FormatUint(uint64(uid), 10)
	if u, err := user.LookupId(name); err == nil {
		name = u.Username
	}
	p.users[uid] = name
	return name
}

func (p *ProcSource) groupName(gid uint32) string {
	if name, ok := p.groups[gid]; ok {
		return name
	}
	name := strconv.FormatUint(uint64(gid), 10)
	if g, err := user.LookupGroupId(name); err == nil {
		name = g.Name
	}
	p.groups[gid] = name
	return name
}

// readNsInode parses a namespace link such as "pid:[4026531836]".
func readNsInode(path string) uint64 {
	link, err := os.Readlink(path)
	if err != nil {
		return 0
	}
	l := strings.IndexByte(link, '[')
	r := strings.IndexByte(link, ']')
	if l < 0 || r < l {
		return 0
	}
	return util.ParseUint64(link[l+1 : r])
}
