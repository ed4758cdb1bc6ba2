package core

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// Transform computes a node's artifact from its parent's current artifact.
// It must not retain or mutate input; input is released after the call.
type Transform[T any] func(input T, params Params) (T, error)

// NodeOption customises a node at attach time.
type NodeOption func(*nodeSettings)

type nodeSettings struct {
	logDuration bool
}

// WithDurationLogging logs every recompute duration at info level instead of
// debug.
func WithDurationLogging() NodeOption {
	return func(s *nodeSettings) { s.logDuration = true }
}

// Node is one vertex of a processing tree. It owns its children, one artifact
// and the goroutine that keeps that artifact in sync with the parent.
type Node[T any] struct {
	name        string
	tree        *Tree[T]
	parent      *Node[T]
	transform   Transform[T]
	output      cell[T]
	logger      logrus.FieldLogger
	logDuration bool

	mu           sync.Mutex
	children     []*Node[T]
	specs        []ParamSpec
	values       Params
	markGen      uint64
	cleanGen     uint64
	failedGen    uint64
	terminated   bool
	attempts     uint64
	recomputes   uint64
	failures     uint64
	lastDuration time.Duration
	lastErr      *RecomputeError

	state    atomic.Int32
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func newNode[T any](t *Tree[T], parent *Node[T], name string, fn Transform[T], specs []ParamSpec, settings nodeSettings) *Node[T] {
	n := &Node[T]{
		name:        name,
		tree:        t,
		parent:      parent,
		transform:   fn,
		output:      cell[T]{ops: t.ops},
		logger:      t.logger.WithField("node", name),
		logDuration: settings.logDuration,
		specs:       append([]ParamSpec(nil), specs...),
		values:      make(Params, len(specs)),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
	for _, s := range specs {
		n.values[s.Name] = s.Initial
	}
	return n
}

// Name returns the node's tree-unique name.
func (n *Node[T]) Name() string { return n.name }

// Parent returns nil for the root.
func (n *Node[T]) Parent() *Node[T] { return n.parent }

// IsRoot reports whether n is its tree's source node.
func (n *Node[T]) IsRoot() bool { return n.parent == nil }

// Children returns a copy of the child list in attach order.
func (n *Node[T]) Children() []*Node[T] {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]*Node[T](nil), n.children...)
}

// Attach creates a child of n. See Tree.Attach.
func (n *Node[T]) Attach(name string, fn Transform[T], specs []ParamSpec, opts ...NodeOption) (*Node[T], error) {
	return n.tree.Attach(n, name, fn, specs, opts...)
}

// ReadOutput returns a copy of the current artifact. It never waits for an
// in-flight recompute, so the value may be stale while the node is dirty.
func (n *Node[T]) ReadOutput() T {
	return n.output.read()
}

// SetParameter updates one knob and marks this node, and only this node,
// dirty. Out-of-range values are rejected, not clamped.
func (n *Node[T]) SetParameter(name string, value int) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.terminated {
		return fmt.Errorf("set parameter %q on node %q: %w", name, n.name, ErrTerminated)
	}
	spec, ok := n.specLocked(name)
	if !ok {
		return &ParamError{Node: n.name, Name: name, Value: value, Err: ErrUnknownParameter}
	}
	if !spec.Contains(value) {
		return &ParamError{Node: n.name, Name: name, Value: value, Min: spec.Min, Max: spec.Max, Err: ErrOutOfBounds}
	}

	n.values[name] = value
	n.markGen++
	n.logger.WithFields(logrus.Fields{"param": name, "value": value}).Debug("Parameter changed")
	return nil
}

// ForceRefresh marks the node dirty without any input change. On the root
// this re-runs the whole tree.
func (n *Node[T]) ForceRefresh() {
	if n.markDirty() {
		n.logger.Debug("Forced refresh")
	}
}

// ReplaceSource swaps the root's artifact and marks the root dirty so the new
// value cascades down. The tree takes ownership of artifact.
func (n *Node[T]) ReplaceSource(artifact T) error {
	if n.parent != nil {
		return fmt.Errorf("replace source of %q: %w", n.name, ErrNotRoot)
	}
	// Held across the check and the swap so Close cannot clear the cell in
	// between and miss the new artifact.
	n.mu.Lock()
	if n.terminated {
		n.mu.Unlock()
		return fmt.Errorf("replace source of %q: %w", n.name, ErrTerminated)
	}
	n.output.replace(artifact)
	n.markGen++
	n.mu.Unlock()

	n.logger.Info("Source replaced")
	return nil
}

// TerminateSubtree asks n and every descendant to stop. Each worker exits at
// its next poll boundary; a recompute already running finishes first.
func (n *Node[T]) TerminateSubtree() {
	n.mu.Lock()
	n.terminated = true
	children := append([]*Node[T](nil), n.children...)
	n.mu.Unlock()

	n.stopOnce.Do(func() { close(n.stop) })
	for _, child := range children {
		child.TerminateSubtree()
	}
}

// Wait blocks until the worker loops of n and all its descendants have
// exited.
func (n *Node[T]) Wait() {
	<-n.done
	for _, child := range n.Children() {
		child.Wait()
	}
}

// IsDirty reports whether the output lags behind the latest input change.
// A failed recompute leaves the node dirty.
func (n *Node[T]) IsDirty() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.markGen != n.cleanGen
}

func (n *Node[T]) State() State {
	return State(n.state.Load())
}

func (n *Node[T]) LastDuration() time.Duration {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.lastDuration
}

// LastError returns the error of the latest attempt, or nil if it succeeded.
func (n *Node[T]) LastError() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.lastErr == nil {
		return nil
	}
	return n.lastErr
}

// Params returns a snapshot of the current parameter values.
func (n *Node[T]) Params() Params {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.values.clone()
}

// ParamSpecs returns the parameter descriptors in declaration order.
func (n *Node[T]) ParamSpecs() []ParamSpec {
	return append([]ParamSpec(nil), n.specs...)
}

// Stats is a point-in-time diagnostic view of a node.
type Stats struct {
	Name         string
	State        State
	Dirty        bool
	Attempts     uint64
	Recomputes   uint64
	Failures     uint64
	LastDuration time.Duration
	LastError    error
}

func (n *Node[T]) Stats() Stats {
	n.mu.Lock()
	defer n.mu.Unlock()
	s := Stats{
		Name:         n.name,
		State:        n.State(),
		Dirty:        n.markGen != n.cleanGen,
		Attempts:     n.attempts,
		Recomputes:   n.recomputes,
		Failures:     n.failures,
		LastDuration: n.lastDuration,
	}
	if n.lastErr != nil {
		s.LastError = n.lastErr
	}
	return s
}

func (n *Node[T]) specLocked(name string) (ParamSpec, bool) {
	for _, s := range n.specs {
		if s.Name == name {
			return s, true
		}
	}
	return ParamSpec{}, false
}

// markDirty bumps the mark generation. Terminated nodes ignore it.
func (n *Node[T]) markDirty() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.terminated {
		return false
	}
	n.markGen++
	return true
}

func (n *Node[T]) markChildren() {
	for _, child := range n.Children() {
		child.markDirty()
	}
}
