package vec

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	n := New(3, 4).Normalize()
	assert.InDelta(t, 0.6, n.X, 1e-9)
	assert.InDelta(t, 0.8, n.Y, 1e-9)
	assert.InDelta(t, 1.0, n.Magnitude(), 1e-9)

	assert.True(t, Vec2{}.Normalize().IsZero(), "zero vector stays zero")
}

func TestLerp(t *testing.T) {
	from := New(0, 10)
	to := New(10, 30)

	assert.Equal(t, from, from.Lerp(to, 0))
	assert.Equal(t, to, from.Lerp(to, 1))
	assert.Equal(t, New(5, 20), from.Lerp(to, 0.5))
}

func TestAngleRoundTrip(t *testing.T) {
	for _, theta := range []float64{0, math.Pi / 4, -math.Pi / 2, 3} {
		v := FromAngle(theta)
		assert.InDelta(t, theta, v.Angle(), 1e-9)
		assert.InDelta(t, 1.0, v.Magnitude(), 1e-9)
	}
}

func TestDistance(t *testing.T) {
	assert.InDelta(t, 5.0, New(1, 1).Distance(New(4, 5)), 1e-9)
	assert.Equal(t, 0.0, New(2, 2).Distance(New(2, 2)))
}
