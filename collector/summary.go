package collector

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v4/host"

	"github.com/ftahirops/ptop/model"
	"github.com/ftahirops/ptop/util"
)

// ProcSummary reads /proc/stat, /proc/meminfo and /proc/loadavg, plus
// uptime and logged-in users from the host.
type ProcSummary struct {
	Root string

	// HostInfo returns uptime seconds and the logged-in user count.
	HostInfo func(ctx context.Context) (uint64, int)
}

// NewProcSummary returns a summary source reading root, "/proc" when empty.
func NewProcSummary(root string) *ProcSummary {
	if root == "" {
		root = "/proc"
	}
	return &ProcSummary{Root: root, HostInfo: gopsutilHostInfo}
}

func gopsutilHostInfo(ctx context.Context) (uint64, int) {
	up, err := host.UptimeWithContext(ctx)
	if err != nil {
		util.Log.Debugf("uptime: %v", err)
	}
	// utmp is often missing in containers; zero users is fine.
	users, err := host.UsersWithContext(ctx)
	if err != nil {
		util.Log.Debugf("users: %v", err)
	}
	return up, len(users)
}

// ReadSummary fills stats. Any read failure is returned; a frame with
// a partial summary is not meaningful.
func (p *ProcSummary) ReadSummary(stats *model.SystemStats) error {
	stats.Timestamp = time.Now()
	if err := p.readStat(stats); err != nil {
		return err
	}
	if err := p.readMeminfo(stats); err != nil {
		return err
	}
	if err := p.readLoadAvg(stats); err != nil {
		return err
	}
	if p.HostInfo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		stats.Uptime, stats.Users = p.HostInfo(ctx)
		cancel()
	}
	return nil
}

func (p *ProcSummary) readStat(stats *model.SystemStats) error {
	content, err := util.ReadFileString(filepath.Join(p.Root, "stat"))
	if err != nil {
		return errors.Wrap(err, "read /proc/stat")
	}
	stats.PerCPU = stats.PerCPU[:0]
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, "cpu ") {
			stats.CPU = parseCPULine(line)
		} else if strings.HasPrefix(line, "cpu") {
			stats.PerCPU = append(stats.PerCPU, parseCPULine(line))
		}
	}
	if len(stats.PerCPU) == 0 {
		return errors.New("no cpu lines in /proc/stat")
	}
	return nil
}

func parseCPULine(line string) model.CPUTimes {
	fields := strings.Fields(line)
	// fields[0] = "cpu" or "cpuN", then user nice system idle iowait irq softirq steal guest guest_nice
	var v [10]uint64
	for i := 1; i < len(fields) && i <= len(v); i++ {
		v[i-1] = util.ParseUint64(fields[i])
	}
	return model.CPUTimes{
		User: v[0], Nice: v[1], System: v[2], Idle: v[3], IOWait: v[4],
		IRQ: v[5], SoftIRQ: v[6], Steal: v[7], Guest: v[8], GuestNice: v[9],
	}
}

func (p *ProcSummary) readMeminfo(stats *model.SystemStats) error {
	kv, err := util.ParseKeyValueFile(filepath.Join(p.Root, "meminfo"))
	if err != nil {
		return errors.Wrap(err, "read /proc/meminfo")
	}
	mem := &stats.Memory
	mem.Total = util.ParseUint64(kv["MemTotal"])
	mem.Free = util.ParseUint64(kv["MemFree"])
	mem.Available = util.ParseUint64(kv["MemAvailable"])
	mem.Buffers = util.ParseUint64(kv["Buffers"])
	mem.Cached = util.ParseUint64(kv["Cached"])
	mem.SReclaim = util.ParseUint64(kv["SReclaimable"])
	mem.SwapTotal = util.ParseUint64(kv["SwapTotal"])
	mem.SwapFree = util.ParseUint64(kv["SwapFree"])
	if mem.Total == 0 {
		return errors.New("MemTotal missing from /proc/meminfo")
	}
	return nil
}

func (p *ProcSummary) readLoadAvg(stats *model.SystemStats) error {
	content, err := util.ReadFileString(filepath.Join(p.Root, "loadavg"))
	if err != nil {
		return errors.Wrap(err, "read /proc/loadavg")
	}
	fields := strings.Fields(content)
	if len(fields) < 4 {
		return errors.New("unexpected /proc/loadavg format")
	}
	stats.Load.Load1 = util.ParseFloat64(fields[0])
	stats.Load.Load5 = util.ParseFloat64(fields[1])
	stats.Load.Load15 = util.ParseFloat64(fields[2])
	if parts := strings.SplitN(fields[3], "/", 2); len(parts) == 2 {
		stats.Load.Running = util.ParseUint64(parts[0])
		stats.Load.Total = util.ParseUint64(parts[1])
	}
	return nil
}

// Proc bundles the procfs sample and summary sources.
type Proc struct {
	*ProcSource
	*ProcSummary
}

// NewProc returns the default /proc collector.
func NewProc(root string) *Proc {
	return &Proc{ProcSource: NewProcSource(root), ProcSummary: NewProcSummary(root)}
}
