// Package layout turns a tree's naming structure into breadth-first integer
// ids, tidy 2-D positions and lineage labels for display.
package layout

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

var (
	ErrDuplicateName = errors.New("duplicate name in structure")
	ErrNotTree       = errors.New("edges do not form a tree")
)

// Group is one name and its children's groups, in attach order. A leaf has
// no children.
type Group struct {
	Name     string
	Children []Group
}

// Edge is a directed parent→child link by name.
type Edge struct {
	Parent string
	Child  string
}

// Point is a position in layout units: one unit between siblings, one unit
// per depth level.
type Point struct {
	X float64
	Y float64
}

// Result is everything a display needs to place and title node windows.
type Result struct {
	Edges     []Edge
	IDs       map[string]int
	Names     []string
	Positions map[string]Point
	Labels    map[string]string
}

// Edges flattens the structure into parent→child edges in breadth-first
// order. The root never appears as a child.
func Edges(root Group) []Edge {
	var edges []Edge
	queue := []Group{root}
	for len(queue) > 0 {
		g := queue[0]
		queue = queue[1:]
		for _, child := range g.Children {
			edges = append(edges, Edge{Parent: g.Name, Child: child.Name})
			queue = append(queue, child)
		}
	}
	return edges
}

// AssignIDs numbers names in order of first discovery: the root is 0, then
// every edge's child in the order given.
func AssignIDs(root Group, edges []Edge) (map[string]int, []string, error) {
	ids := map[string]int{root.Name: 0}
	names := []string{root.Name}
	for _, e := range edges {
		if _, ok := ids[e.Child]; ok {
			return nil, nil, fmt.Errorf("%w: %q", ErrDuplicateName, e.Child)
		}
		ids[e.Child] = len(names)
		names = append(names, e.Child)
	}
	return ids, names, nil
}

// Compute runs the whole layout: edges, ids, positions and labels.
func Compute(root Group) (*Result, error) {
	edges := Edges(root)
	ids, names, err := AssignIDs(root, edges)
	if err != nil {
		return nil, err
	}

	numeric := make([][2]int, len(edges))
	for i, e := range edges {
		numeric[i] = [2]int{ids[e.Parent], ids[e.Child]}
	}
	points, err := ReingoldTilford(len(names), numeric, 0)
	if err != nil {
		return nil, err
	}

	positions := make(map[string]Point, len(names))
	for id, name := range names {
		positions[name] = points[id]
	}

	return &Result{
		Edges:     edges,
		IDs:       ids,
		Names:     names,
		Positions: positions,
		Labels:    Labels(root, ids),
	}, nil
}

// Labels builds lineage labels: the root's label is its id, a descendant's is
// its parent's label, a dot, and its own id.
func Labels(root Group, ids map[string]int) map[string]string {
	labels := make(map[string]string, len(ids))
	var walk func(g Group, prefix string)
	walk = func(g Group, prefix string) {
		label := strconv.Itoa(ids[g.Name])
		if prefix != "" {
			label = prefix + "." + label
		}
		labels[g.Name] = label
		for _, child := range g.Children {
			walk(child, label)
		}
	}
	walk(root, "")
	return labels
}

// Bounds returns the smallest and largest coordinates over all positions.
func (r *Result) Bounds() (min, max Point) {
	if len(r.Positions) == 0 {
		return Point{}, Point{}
	}
	min = Point{X: math.Inf(1), Y: math.Inf(1)}
	max = Point{X: math.Inf(-1), Y: math.Inf(-1)}
	for _, p := range r.Positions {
		min.X = math.Min(min.X, p.X)
		min.Y = math.Min(min.Y, p.Y)
		max.X = math.Max(max.X, p.X)
		max.Y = math.Max(max.Y, p.Y)
	}
	return min, max
}
