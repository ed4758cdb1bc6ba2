package core

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// State is the worker loop state of a node.
type State int32

const (
	StateIdle State = iota
	StateRecomputing
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecomputing:
		return "recomputing"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// run is the node's worker loop. It wakes once per poll interval and exits
// when the node is terminated.
func (n *Node[T]) run() {
	defer close(n.done)

	ticker := time.NewTicker(n.tree.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-n.stop:
			n.exit()
			return
		case <-ticker.C:
		}
		if !n.poll() {
			n.exit()
			return
		}
	}
}

func (n *Node[T]) exit() {
	n.state.Store(int32(StateTerminated))
	n.logger.Debug("Worker stopped")
}

// poll runs one loop iteration. It returns false once the node is terminated.
func (n *Node[T]) poll() bool {
	n.mu.Lock()
	if n.terminated {
		n.mu.Unlock()
		return false
	}
	due := n.markGen != n.cleanGen && n.markGen != n.failedGen
	n.mu.Unlock()

	if due {
		n.recompute()
	}
	return true
}

// recompute refreshes the output from the parent's current output. The mark
// generation is snapshotted with the parameters, so marks that land while
// the transform runs keep the node dirty for the next poll.
func (n *Node[T]) recompute() {
	n.mu.Lock()
	gen := n.markGen
	params := n.values.clone()
	n.attempts++
	attempt := n.attempts
	n.mu.Unlock()

	n.state.Store(int32(StateRecomputing))
	defer n.state.CompareAndSwap(int32(StateRecomputing), int32(StateIdle))

	start := time.Now()
	var err error
	if n.parent != nil {
		input := n.parent.ReadOutput()
		var out T
		out, err = n.apply(input, params)
		n.tree.ops.release(input)
		if err != nil {
			n.tree.ops.release(out)
		} else {
			n.output.replace(out)
		}
	}
	elapsed := time.Since(start)

	n.mu.Lock()
	n.lastDuration = elapsed
	if err != nil {
		n.failedGen = gen
		n.failures++
		n.lastErr = &RecomputeError{Node: n.name, Attempt: attempt, Err: err}
		n.mu.Unlock()
		n.logger.WithFields(logrus.Fields{"attempt": attempt, "error": err}).Warn("Recompute failed")
		return
	}
	if gen > n.cleanGen {
		n.cleanGen = gen
	}
	n.recomputes++
	n.lastErr = nil
	n.mu.Unlock()

	entry := n.logger.WithFields(logrus.Fields{"attempt": attempt, "duration": elapsed})
	if n.logDuration {
		entry.Infof("Time for <%s> to update: %s", n.name, elapsed)
	} else {
		entry.Debug("Recomputed")
	}

	n.markChildren()
}

func (n *Node[T]) apply(input T, params Params) (out T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("transform panicked: %v", r)
		}
	}()
	return n.transform(input, params)
}
