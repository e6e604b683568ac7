package download

import (
	"sync/atomic"

	"github.com/handiism/antenati-downloader/internal/model"
)

// Outcome is the result of downloading one page: either the number of bytes
// stored in File, or Err.
type Outcome struct {
	Page  *model.Page
	File  string
	Bytes int64
	Err   error
}

// OK reports whether the page was stored.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Failure records a page that could not be downloaded.
type Failure struct {
	Page *model.Page
	Err  error
}

// Summary is the result of a run.
type Summary struct {
	// Total is the number of pages submitted to the run.
	Total int

	// Processed counts outcomes consumed, successful or not.
	Processed int
	Succeeded int

	// Bytes is the sum of the sizes of successfully stored pages.
	Bytes    int64
	Failures []Failure

	// Cancelled is set when the run was cancelled.
	Cancelled bool
}

// Failed returns the number of failed pages.
func (s *Summary) Failed() int {
	return len(s.Failures)
}

// aggregator accumulates outcomes into a Summary. Only the goroutine running
// the batch calls add; the counters are atomic so pollers can read them.
type aggregator struct {
	summary   Summary
	processed atomic.Int64
	bytes     atomic.Int64
}

func newAggregator(total int) *aggregator {
	return &aggregator{summary: Summary{Total: total}}
}

func (a *aggregator) add(o Outcome) {
	a.summary.Processed++
	if o.OK() {
		a.summary.Succeeded++
		a.summary.Bytes += o.Bytes
	} else {
		a.summary.Failures = append(a.summary.Failures, Failure{Page: o.Page, Err: o.Err})
	}
	a.processed.Store(int64(a.summary.Processed))
	a.bytes.Store(a.summary.Bytes)
}

func (a *aggregator) result() *Summary {
	s := a.summary
	return &s
}
