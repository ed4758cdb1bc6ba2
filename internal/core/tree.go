package core

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"image-tree/internal/layout"
)

// DefaultPollInterval is how often every worker loop checks its node.
const DefaultPollInterval = 50 * time.Millisecond

// Option configures a Tree.
type Option func(*settings)

type settings struct {
	pollInterval time.Duration
	logger       logrus.FieldLogger
}

func WithPollInterval(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.pollInterval = d
		}
	}
}

func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Tree is a set of nodes rooted at a single source node. Names are unique
// within a tree.
type Tree[T any] struct {
	root         *Node[T]
	ops          ArtifactOps[T]
	pollInterval time.Duration
	logger       logrus.FieldLogger

	mu    sync.RWMutex
	nodes map[string]*Node[T]

	closeOnce sync.Once
}

// NewTree creates a tree whose root holds source and starts the root's
// worker loop. The tree takes ownership of source.
func NewTree[T any](rootName string, source T, ops ArtifactOps[T], opts ...Option) (*Tree[T], error) {
	if rootName == "" {
		return nil, ErrEmptyName
	}
	s := settings{
		pollInterval: DefaultPollInterval,
		logger:       logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(&s)
	}

	t := &Tree[T]{
		ops:          ops,
		pollInterval: s.pollInterval,
		logger:       s.logger,
		nodes:        make(map[string]*Node[T]),
	}
	root := newNode(t, nil, rootName, nil, nil, nodeSettings{})
	root.output.value = source
	t.root = root
	t.nodes[rootName] = root

	go root.run()
	t.logger.WithFields(logrus.Fields{
		"root":          rootName,
		"poll_interval": s.pollInterval,
	}).Debug("Tree created")
	return t, nil
}

func (t *Tree[T]) Root() *Node[T] { return t.root }

func (t *Tree[T]) PollInterval() time.Duration { return t.pollInterval }

// Node looks a node up by name.
func (t *Tree[T]) Node(name string) (*Node[T], bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, ok := t.nodes[name]
	return n, ok
}

// Len returns the number of nodes, root included.
func (t *Tree[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.nodes)
}

// Attach creates a node under parent, seeds its output with a copy of the
// parent's output and starts its worker loop. The node starts dirty so its
// first poll computes a real output.
func (t *Tree[T]) Attach(parent *Node[T], name string, fn Transform[T], specs []ParamSpec, opts ...NodeOption) (*Node[T], error) {
	if parent == nil {
		return nil, fmt.Errorf("attach %q: %w", name, ErrNilParent)
	}
	if parent.tree != t {
		return nil, fmt.Errorf("attach %q: %w", name, ErrForeignParent)
	}
	if name == "" {
		return nil, fmt.Errorf("attach under %q: %w", parent.name, ErrEmptyName)
	}
	if fn == nil {
		return nil, fmt.Errorf("attach %q: %w", name, ErrNilTransform)
	}
	if err := validateSpecs(specs); err != nil {
		return nil, fmt.Errorf("attach %q: %w", name, err)
	}

	var s nodeSettings
	for _, opt := range opts {
		opt(&s)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, dup := t.nodes[name]; dup {
		return nil, fmt.Errorf("attach %q: %w", name, ErrDuplicateName)
	}

	n := newNode(t, parent, name, fn, specs, s)

	parent.mu.Lock()
	if parent.terminated {
		parent.mu.Unlock()
		return nil, fmt.Errorf("attach %q under %q: %w", name, parent.name, ErrTerminated)
	}
	n.output.value = parent.ReadOutput()
	n.markGen = 1
	parent.children = append(parent.children, n)
	parent.mu.Unlock()

	t.nodes[name] = n
	go n.run()

	n.logger.WithFields(logrus.Fields{
		"parent": parent.name,
		"params": len(specs),
	}).Debug("Node attached")
	return n, nil
}

// Nodes returns every node in breadth-first order, children in attach order.
func (t *Tree[T]) Nodes() []*Node[T] {
	out := []*Node[T]{t.root}
	for i := 0; i < len(out); i++ {
		out = append(out, out[i].Children()...)
	}
	return out
}

// Stats returns diagnostics for every node in breadth-first order.
func (t *Tree[T]) Stats() []Stats {
	nodes := t.Nodes()
	stats := make([]Stats, 0, len(nodes))
	for _, n := range nodes {
		stats = append(stats, n.Stats())
	}
	return stats
}

// Structure describes the tree's shape by name for the layout engine.
func (t *Tree[T]) Structure() layout.Group {
	return groupOf(t.root)
}

func groupOf[T any](n *Node[T]) layout.Group {
	children := n.Children()
	g := layout.Group{Name: n.name, Children: make([]layout.Group, 0, len(children))}
	for _, child := range children {
		g.Children = append(g.Children, groupOf(child))
	}
	return g
}

// Layout computes display coordinates and lineage labels for the current
// structure.
func (t *Tree[T]) Layout() (*layout.Result, error) {
	return layout.Compute(t.Structure())
}

// Wait blocks until every worker loop has exited.
func (t *Tree[T]) Wait() {
	t.root.Wait()
}

// Close terminates every node, waits for all worker loops and releases all
// artifacts. It is safe to call more than once.
func (t *Tree[T]) Close() {
	t.closeOnce.Do(func() {
		t.root.TerminateSubtree()
		t.Wait()
		nodes := t.Nodes()
		for _, n := range nodes {
			n.output.clear()
		}
		t.logger.WithField("nodes", len(nodes)).Debug("Tree closed")
	})
}
