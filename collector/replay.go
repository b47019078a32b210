package collector

import (
	"encoding/json"
	"io"
	"sync"

	"github.com/pkg/errors"

	"github.com/ftahirops/ptop/model"
	"github.com/ftahirops/ptop/util"
)

// Frame is one recorded sampling pass.
type Frame struct {
	Stats   model.SystemStats     `json:"stats"`
	Samples []model.ProcessSample `json:"samples"`
}

// Recorder wraps a collector and writes every frame as a JSON line.
type Recorder struct {
	inner  Collector
	writer *json.Encoder
	mu     sync.Mutex
	cur    Frame
	frames int
}

// NewRecorder creates a recorder that writes JSON lines to w.
func NewRecorder(inner Collector, w io.Writer) *Recorder {
	return &Recorder{inner: inner, writer: json.NewEncoder(w)}
}

// Frames returns how many frames were written.
func (r *Recorder) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

func (r *Recorder) ReadSummary(stats *model.SystemStats) error {
	if err := r.inner.ReadSummary(stats); err != nil {
		return err
	}
	r.mu.Lock()
	r.cur.Stats = *stats
	r.cur.Stats.PerCPU = append([]model.CPUTimes(nil), stats.PerCPU...)
	r.mu.Unlock()
	return nil
}

func (r *Recorder) Open(sections model.Sections, pids []int) (Stream, error) {
	st, err := r.inner.Open(sections, pids)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.cur.Samples = r.cur.Samples[:0]
	r.mu.Unlock()
	return &recordStream{rec: r, inner: st}, nil
}

type recordStream struct {
	rec   *Recorder
	inner Stream
}

func (s *recordStream) Next() (*model.ProcessSample, error) {
	p, err := s.inner.Next()
	if err != nil {
		return p, err
	}
	cp := *p
	cp.CmdLine = append([]string(nil), p.CmdLine...)
	cp.Environ = append([]string(nil), p.Environ...)
	cp.SupGroups = append([]string(nil), p.SupGroups...)
	s.rec.mu.Lock()
	s.rec.cur.Samples = append(s.rec.cur.Samples, cp)
	s.rec.mu.Unlock()
	return p, nil
}

func (s *recordStream) Close() error {
	err := s.inner.Close()
	s.rec.mu.Lock()
	defer s.rec.mu.Unlock()
	if encErr := s.rec.writer.Encode(&s.rec.cur); encErr != nil {
		// a failed write must not break the live display
		util.Log.Warnf("record frame: %v", encErr)
		return err
	}
	s.rec.frames++
	return err
}

// Player replays recorded frames. Each ReadSummary call advances to the
// next frame; past the end the last frame repeats.
type Player struct {
	frames []Frame
	idx    int
	mu     sync.Mutex
}

// NewPlayer creates a player from a recorded JSON-lines stream.
func NewPlayer(r io.Reader) (*Player, error) {
	dec := json.NewDecoder(r)
	var frames []Frame
	for {
		var f Frame
		if err := dec.Decode(&f); err != nil {
			if err == io.EOF {
				break
			}
			return nil, errors.Wrapf(err, "decode frame %d", len(frames)+1)
		}
		frames = append(frames, f)
	}
	if len(frames) == 0 {
		return nil, errors.New("recording holds no frames")
	}
	return &Player{frames: frames, idx: -1}, nil
}

// NewPlayerFrames creates a player over in-memory frames.
func NewPlayerFrames(frames []Frame) *Player {
	return &Player{frames: frames, idx: -1}
}

// Len returns the number of frames available.
func (p *Player) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.frames)
}

func (p *Player) current() *Frame {
	if p.idx < 0 {
		return &p.frames[0]
	}
	return &p.frames[p.idx]
}

func (p *Player) ReadSummary(stats *model.SystemStats) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.frames) == 0 {
		return errors.New("no frames to replay")
	}
	if p.idx < len(p.frames)-1 {
		p.idx++
	}
	f := p.current()
	*stats = f.Stats
	stats.PerCPU = append(stats.PerCPU[:0:0], f.Stats.PerCPU...)
	return nil
}

func (p *Player) Open(_ model.Sections, pids []int) (Stream, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.frames) == 0 {
		return nil, errors.New("no frames to replay")
	}
	var allow map[int]bool
	if len(pids) > 0 {
		allow = make(map[int]bool, len(pids))
		for _, pid := range pids {
			allow[pid] = true
		}
	}
	return &sliceStream{samples: p.current().Samples, allow: allow}, nil
}

type sliceStream struct {
	samples []model.ProcessSample
	allow   map[int]bool
	next    int
	cur     model.ProcessSample
}

func (s *sliceStream) Next() (*model.ProcessSample, error) {
	for s.next < len(s.samples) {
		s.cur = s.samples[s.next]
		s.next++
		if s.allow != nil && !s.allow[s.cur.TGID] && !s.allow[s.cur.PID] {
			continue
		}
		return &s.cur, nil
	}
	return nil, io.EOF
}

func (s *sliceStream) Close() error { return nil }
