package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"image-tree/internal/core"
)

var sampleStats = []core.Stats{
	{Name: "root"},
	{Name: "a", Attempts: 3, Recomputes: 3, LastDuration: 2 * time.Millisecond},
	{Name: "b", Attempts: 2, Recomputes: 1, Failures: 1, Dirty: true,
		LastDuration: 6 * time.Millisecond, LastError: errors.New("boom")},
	{Name: "c", State: core.StateTerminated, Attempts: 1, Recomputes: 1, LastDuration: time.Millisecond},
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleStats)

	assert.Equal(t, 4, s.Nodes)
	assert.Equal(t, 1, s.Dirty)
	assert.Equal(t, 1, s.Failing)
	assert.Equal(t, 1, s.Terminated)
	assert.Equal(t, uint64(5), s.Recomputes)
	assert.Equal(t, uint64(1), s.Failures)
	assert.Equal(t, "b", s.Slowest)
	assert.Equal(t, 6*time.Millisecond, s.SlowestTime)
	assert.Equal(t, 3*time.Millisecond, s.MeanDuration)
	assert.Equal(t, "4 nodes, 1 dirty, 1 failing, 5 recomputes, slowest b (6ms)", s.String())
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	assert.Zero(t, s.MeanDuration)
	assert.Equal(t, "0 nodes, 0 dirty, 0 failing, 0 recomputes", s.String())
}

type fixedSource []core.Stats

func (f fixedSource) Stats() []core.Stats { return f }

func TestReporter(t *testing.T) {
	logger, hook := test.NewNullLogger()
	r := NewReporter(fixedSource(sampleStats), time.Millisecond, logger)

	r.Report()
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, 4, hook.LastEntry().Data["nodes"])

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()
	assert.Eventually(t, func() bool { return len(hook.AllEntries()) > 2 }, time.Second, time.Millisecond)
	cancel()
	<-done
}
