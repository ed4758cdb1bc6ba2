package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leaf(name string) Group { return Group{Name: name} }

// A → B → D → F, A → C → E
func sampleTree() Group {
	return Group{Name: "A", Children: []Group{
		{Name: "B", Children: []Group{
			{Name: "D", Children: []Group{leaf("F")}},
		}},
		{Name: "C", Children: []Group{leaf("E")}},
	}}
}

func TestEdges_BreadthFirst(t *testing.T) {
	edges := Edges(sampleTree())

	assert.Equal(t, []Edge{
		{"A", "B"}, {"A", "C"}, {"B", "D"}, {"C", "E"}, {"D", "F"},
	}, edges)
}

func TestEdges_SingleNode(t *testing.T) {
	assert.Empty(t, Edges(leaf("root")))
}

func TestAssignIDs(t *testing.T) {
	root := sampleTree()
	ids, names, err := AssignIDs(root, Edges(root))
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"A": 0, "B": 1, "C": 2, "D": 3, "E": 4, "F": 5}, ids)
	assert.Equal(t, []string{"A", "B", "C", "D", "E", "F"}, names)
}

func TestAssignIDs_Duplicate(t *testing.T) {
	root := Group{Name: "A", Children: []Group{leaf("B"), {Name: "C", Children: []Group{leaf("B")}}}}

	_, _, err := AssignIDs(root, Edges(root))
	assert.ErrorIs(t, err, ErrDuplicateName)

	_, err = Compute(root)
	assert.ErrorIs(t, err, ErrDuplicateName)
}

func TestLabels(t *testing.T) {
	root := sampleTree()
	ids, _, err := AssignIDs(root, Edges(root))
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"A": "0",
		"B": "0.1",
		"C": "0.2",
		"D": "0.1.3",
		"E": "0.2.4",
		"F": "0.1.3.5",
	}, Labels(root, ids))
}

func TestCompute_Positions(t *testing.T) {
	res, err := Compute(sampleTree())
	require.NoError(t, err)

	assert.Equal(t, map[string]Point{
		"A": {0, 0},
		"B": {-0.5, 1},
		"C": {0.5, 1},
		"D": {-0.5, 2},
		"E": {0.5, 2},
		"F": {-0.5, 3},
	}, res.Positions)
}

func TestCompute_Chain(t *testing.T) {
	root := Group{Name: "r", Children: []Group{{Name: "a", Children: []Group{leaf("b")}}}}

	res, err := Compute(root)
	require.NoError(t, err)

	assert.Equal(t, Point{0, 0}, res.Positions["r"])
	assert.Equal(t, Point{0, 1}, res.Positions["a"])
	assert.Equal(t, Point{0, 2}, res.Positions["b"])
	assert.Equal(t, "0.1.2", res.Labels["b"])
}

func TestCompute_SiblingsSpreadEvenly(t *testing.T) {
	root := Group{Name: "r", Children: []Group{leaf("a"), leaf("b"), leaf("c")}}

	res, err := Compute(root)
	require.NoError(t, err)

	assert.Equal(t, -1.0, res.Positions["a"].X)
	assert.Equal(t, 0.0, res.Positions["b"].X)
	assert.Equal(t, 1.0, res.Positions["c"].X)
}

func TestCompute_SubtreesDoNotOverlap(t *testing.T) {
	root := Group{Name: "r", Children: []Group{
		{Name: "x", Children: []Group{leaf("x1"), leaf("x2")}},
		{Name: "y", Children: []Group{leaf("y1"), leaf("y2")}},
	}}

	res, err := Compute(root)
	require.NoError(t, err)

	assert.Equal(t, -1.0, res.Positions["x"].X)
	assert.Equal(t, 1.0, res.Positions["y"].X)
	assert.Equal(t, []float64{-1.5, -0.5, 0.5, 1.5}, []float64{
		res.Positions["x1"].X, res.Positions["x2"].X,
		res.Positions["y1"].X, res.Positions["y2"].X,
	})
}

func TestCompute_Deterministic(t *testing.T) {
	first, err := Compute(sampleTree())
	require.NoError(t, err)
	second, err := Compute(sampleTree())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestReingoldTilford_RejectsNonTree(t *testing.T) {
	_, err := ReingoldTilford(3, [][2]int{{0, 1}, {2, 1}}, 0)
	assert.ErrorIs(t, err, ErrNotTree)

	_, err = ReingoldTilford(3, [][2]int{{0, 1}}, 0)
	assert.ErrorIs(t, err, ErrNotTree, "vertex 2 is unreachable")

	_, err = ReingoldTilford(2, [][2]int{{0, 5}}, 0)
	assert.ErrorIs(t, err, ErrNotTree)
}

func TestResult_Bounds(t *testing.T) {
	res, err := Compute(sampleTree())
	require.NoError(t, err)

	min, max := res.Bounds()
	assert.Equal(t, Point{-0.5, 0}, min)
	assert.Equal(t, Point{0.5, 3}, max)
}
