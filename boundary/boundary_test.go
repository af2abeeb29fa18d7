package boundary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSet(t *testing.T) {
	{ // Kind parsing accepts the usual aliases
		k, err := ParseKind("Dirichlet")
		require.NoError(t, err)
		assert.Equal(t, Dirichlet, k)
		k, err = ParseKind(" outlet ")
		require.NoError(t, err)
		assert.Equal(t, Neumann, k)
		_, err = ParseKind("periodic")
		assert.Error(t, err)
	}
	{ // A lid-driven cavity specification
		lid := Condition{Kind: Dirichlet, Values: [3]float64{1, 0, 0}}
		wall := Condition{Kind: Dirichlet}
		s, err := New(2, map[Side]Condition{
			XMin: wall, XMax: wall, YMin: wall, YMax: lid,
		})
		require.NoError(t, err)
		kind, v := s.Value(1, true, 0)
		assert.Equal(t, Dirichlet, kind)
		assert.Equal(t, 1.0, v)
		kind, v = s.Value(0, false, 1)
		assert.Equal(t, Dirichlet, kind)
		assert.Equal(t, 0.0, v)
	}
	{ // Missing and extra sides are rejected
		wall := Condition{Kind: Dirichlet}
		_, err := New(2, map[Side]Condition{XMin: wall, XMax: wall, YMin: wall})
		assert.Error(t, err)
		_, err = New(2, map[Side]Condition{
			XMin: wall, XMax: wall, YMin: wall, YMax: wall, ZMin: wall,
		})
		assert.Error(t, err)
	}
	{ // Sides address axes as expected
		assert.Equal(t, YMax, SideOf(1, true))
		assert.Equal(t, ZMin, SideOf(2, false))
		assert.Equal(t, "yPlus", YMax.String())
	}
}
