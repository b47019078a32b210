// Package collector supplies the frame engine with process samples and
// system-wide summary data.
package collector

import "github.com/ftahirops/ptop/model"

// Source opens one pass over the process table. sections names the
// optional data to read; pids, when non-empty, restricts the pass.
type Source interface {
	Open(sections model.Sections, pids []int) (Stream, error)
}

// Stream yields the samples of one pass. Next returns io.EOF after the
// last sample. The returned pointer is only valid until the next call.
type Stream interface {
	Next() (*model.ProcessSample, error)
	Close() error
}

// SummarySource reports system-wide CPU, memory and load figures.
type SummarySource interface {
	ReadSummary(stats *model.SystemStats) error
}

// Collector is a sample source that also provides the summary.
type Collector interface {
	Source
	SummarySource
}
