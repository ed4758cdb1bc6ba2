package core

import "sync"

// ArtifactOps tells the engine how to copy and free artifacts. Artifacts that
// own native memory (gocv.Mat) need both; plain values can leave them nil.
type ArtifactOps[T any] struct {
	Clone   func(T) T
	Release func(T)
}

func (o ArtifactOps[T]) clone(v T) T {
	if o.Clone == nil {
		return v
	}
	return o.Clone(v)
}

func (o ArtifactOps[T]) release(v T) {
	if o.Release != nil {
		o.Release(v)
	}
}

// cell holds a node's current artifact. Writers swap the whole value and
// readers get their own copy, so nobody sees a half-written artifact.
type cell[T any] struct {
	mu    sync.RWMutex
	value T
	ops   ArtifactOps[T]
}

func (c *cell[T]) read() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ops.clone(c.value)
}

func (c *cell[T]) replace(v T) {
	c.mu.Lock()
	old := c.value
	c.value = v
	c.mu.Unlock()
	c.ops.release(old)
}

func (c *cell[T]) clear() {
	var zero T
	c.replace(zero)
}
