// Tree-wide diagnostics derived from per-node stats
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"image-tree/internal/core"
)

// Summary aggregates node stats for a status line or a periodic log.
type Summary struct {
	Nodes        int
	Dirty        int
	Failing      int
	Terminated   int
	Recomputes   uint64
	Failures     uint64
	Slowest      string
	SlowestTime  time.Duration
	MeanDuration time.Duration
}

// Summarize folds stats into a Summary. Mean duration only counts nodes that
// have recomputed at least once.
func Summarize(stats []core.Stats) Summary {
	var s Summary
	var total time.Duration
	var timed int
	for _, st := range stats {
		s.Nodes++
		s.Recomputes += st.Recomputes
		s.Failures += st.Failures
		if st.Dirty {
			s.Dirty++
		}
		if st.LastError != nil {
			s.Failing++
		}
		if st.State == core.StateTerminated {
			s.Terminated++
		}
		if st.Attempts == 0 {
			continue
		}
		total += st.LastDuration
		timed++
		if st.LastDuration > s.SlowestTime {
			s.Slowest = st.Name
			s.SlowestTime = st.LastDuration
		}
	}
	if timed > 0 {
		s.MeanDuration = total / time.Duration(timed)
	}
	return s
}

func (s Summary) Fields() logrus.Fields {
	return logrus.Fields{
		"nodes":         s.Nodes,
		"dirty":         s.Dirty,
		"failing":       s.Failing,
		"terminated":    s.Terminated,
		"recomputes":    s.Recomputes,
		"failures":      s.Failures,
		"slowest":       s.Slowest,
		"slowest_time":  s.SlowestTime,
		"mean_duration": s.MeanDuration,
	}
}

func (s Summary) String() string {
	out := fmt.Sprintf("%d nodes, %d dirty, %d failing, %d recomputes", s.Nodes, s.Dirty, s.Failing, s.Recomputes)
	if s.Slowest != "" {
		out += fmt.Sprintf(", slowest %s (%s)", s.Slowest, s.SlowestTime.Round(time.Microsecond))
	}
	return out
}

// StatsSource is anything that can report node stats, usually a core.Tree.
type StatsSource interface {
	Stats() []core.Stats
}

// Reporter logs a Summary at a fixed interval.
type Reporter struct {
	source   StatsSource
	interval time.Duration
	logger   logrus.FieldLogger
}

func NewReporter(source StatsSource, interval time.Duration, logger logrus.FieldLogger) *Reporter {
	return &Reporter{source: source, interval: interval, logger: logger}
}

// Run logs until ctx is cancelled.
func (r *Reporter) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Report()
		}
	}
}

func (r *Reporter) Report() {
	s := Summarize(r.source.Stats())
	entry := r.logger.WithFields(s.Fields())
	if s.Failing > 0 {
		entry.Warn("Tree stats")
		return
	}
	entry.Info("Tree stats")
}
