package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindProperties(t *testing.T) {
	tests := []struct {
		kind    Kind
		name    string
		movable bool
		points  int
	}{
		{Light, "Light", true, 20},
		{Dark, "Dark", true, 10},
		{Queen, "Queen", true, 50},
		{Striker, "Striker", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.kind.String())
			assert.Equal(t, tt.movable, tt.kind.Movable())
			assert.Equal(t, tt.points, tt.kind.Points())
		})
	}

	assert.Equal(t, "Unknown", Kind(42).String())
	assert.False(t, Kind(42).Movable())
}

func TestClampLaunchX(t *testing.T) {
	g := DefaultGeometry()

	assert.Equal(t, 120.0, g.ClampLaunchX(-50))
	assert.Equal(t, 120.0, g.ClampLaunchX(0))
	assert.Equal(t, 400.0, g.ClampLaunchX(400))
	assert.Equal(t, 680.0, g.ClampLaunchX(799))
}

func TestOpponentFacing(t *testing.T) {
	g := DefaultGeometry()
	assert.Equal(t, -1.0, g.OpponentFacing())

	g.OpponentBaseline, g.HumanBaseline = 660, 140
	assert.Equal(t, 1.0, g.OpponentFacing())
}

func TestRack(t *testing.T) {
	g := DefaultGeometry()
	rack := g.Rack()
	require.Len(t, rack, 19)

	counts := map[Kind]int{}
	for _, p := range rack {
		counts[p.Kind]++
	}
	assert.Equal(t, 1, counts[Queen])
	assert.Equal(t, 9, counts[Light])
	assert.Equal(t, 9, counts[Dark])
	assert.Equal(t, g.Center(), rack[0].Position)

	// no two pieces overlap in the opening layout
	for i := range rack {
		for j := i + 1; j < len(rack); j++ {
			d := rack[i].Position.Distance(rack[j].Position)
			assert.GreaterOrEqual(t, d, 2*g.PieceRadius, "pieces %d and %d overlap", i, j)
		}
	}
}

func TestPockets(t *testing.T) {
	g := DefaultGeometry()
	pockets := g.Pockets()
	require.Len(t, pockets, 4)
	assert.Equal(t, 40.0, pockets[0].X)
	assert.Equal(t, 760.0, pockets[3].Y)
}

func TestKindUnmarshalText(t *testing.T) {
	var k Kind
	require.NoError(t, k.UnmarshalText([]byte("Queen")))
	assert.Equal(t, Queen, k)

	assert.Error(t, k.UnmarshalText([]byte("queen")))
}
