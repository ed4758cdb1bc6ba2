package layout

import "fmt"

// siblingGap is the minimum horizontal distance between neighbouring
// subtrees at any depth.
const siblingGap = 1.0

// contour holds the leftmost and rightmost x of a subtree per depth, relative
// to the subtree's root.
type contour struct {
	left  []float64
	right []float64
}

// ReingoldTilford lays out a tree given as n vertices and parent→child edges.
// Children keep the order their edges appear in. Depth maps to y, the root
// sits at (0, 0), and each parent is centred over its first and last child.
func ReingoldTilford(n int, edges [][2]int, root int) ([]Point, error) {
	if n == 0 {
		return nil, nil
	}
	if root < 0 || root >= n {
		return nil, fmt.Errorf("%w: root %d out of range", ErrNotTree, root)
	}

	children := make([][]int, n)
	hasParent := make([]bool, n)
	for _, e := range edges {
		p, c := e[0], e[1]
		if p < 0 || p >= n || c < 0 || c >= n {
			return nil, fmt.Errorf("%w: edge %d→%d out of range", ErrNotTree, p, c)
		}
		if hasParent[c] || c == root {
			return nil, fmt.Errorf("%w: vertex %d has more than one parent", ErrNotTree, c)
		}
		hasParent[c] = true
		children[p] = append(children[p], c)
	}

	// offset[v] is v's x relative to its parent.
	offset := make([]float64, n)
	visited := make([]bool, n)

	var place func(v int) (contour, error)
	place = func(v int) (contour, error) {
		if visited[v] {
			return contour{}, fmt.Errorf("%w: cycle at vertex %d", ErrNotTree, v)
		}
		visited[v] = true

		kids := children[v]
		if len(kids) == 0 {
			return contour{left: []float64{0}, right: []float64{0}}, nil
		}

		var acc contour
		shifts := make([]float64, len(kids))
		for i, c := range kids {
			sub, err := place(c)
			if err != nil {
				return contour{}, err
			}
			if i == 0 {
				acc = contour{
					left:  append([]float64(nil), sub.left...),
					right: append([]float64(nil), sub.right...),
				}
				continue
			}
			shift := shifts[i-1] + siblingGap
			for d := 0; d < len(sub.left) && d < len(acc.right); d++ {
				if need := acc.right[d] - sub.left[d] + siblingGap; need > shift {
					shift = need
				}
			}
			shifts[i] = shift
			for d := range sub.left {
				if d < len(acc.right) {
					acc.right[d] = sub.right[d] + shift
					continue
				}
				acc.left = append(acc.left, sub.left[d]+shift)
				acc.right = append(acc.right, sub.right[d]+shift)
			}
		}

		mid := (shifts[0] + shifts[len(shifts)-1]) / 2
		for i, c := range kids {
			offset[c] = shifts[i] - mid
		}
		out := contour{
			left:  make([]float64, 0, len(acc.left)+1),
			right: make([]float64, 0, len(acc.right)+1),
		}
		out.left = append(out.left, 0)
		out.right = append(out.right, 0)
		for d := range acc.left {
			out.left = append(out.left, acc.left[d]-mid)
			out.right = append(out.right, acc.right[d]-mid)
		}
		return out, nil
	}

	if _, err := place(root); err != nil {
		return nil, err
	}

	points := make([]Point, n)
	var assign func(v int, x float64, depth int)
	assign = func(v int, x float64, depth int) {
		points[v] = Point{X: x, Y: float64(depth)}
		for _, c := range children[v] {
			assign(c, x+offset[c], depth+1)
		}
	}
	assign(root, 0, 0)

	for v := range visited {
		if !visited[v] {
			return nil, fmt.Errorf("%w: vertex %d unreachable from root", ErrNotTree, v)
		}
	}
	return points, nil
}
