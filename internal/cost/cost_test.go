package cost

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePriority(t *testing.T) {
	tests := []struct {
		input    string
		expected Priority
		wantErr  bool
	}{
		{"", Optimal, false},
		{"optimal", Optimal, false},
		{"cost", Cheapest, false},
		{"time", Fastest, false},
		{" TIME ", Fastest, false},
		{"fastest", "", true},
		{"distance", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			p, err := ParsePriority(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidPriority)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, p)
		})
	}
}

func TestModel_Fare(t *testing.T) {
	m := DefaultModel()

	assert.Equal(t, 150.0, m.Fare(0))
	assert.InDelta(t, 170.0, m.Fare(1000), 1e-9)
	assert.InDelta(t, 350.0, m.Fare(10000), 1e-9)
}

func TestModel_Time(t *testing.T) {
	m := DefaultModel()

	assert.Equal(t, 0.0, m.Time(0))
	assert.InDelta(t, 60.0, m.Time(40000), 1e-9)
	assert.InDelta(t, 1.5, m.Time(1000), 1e-9)
}

func TestModel_For(t *testing.T) {
	m := Model{BaseFare: 100, CostPerKm: 10, AverageSpeedKmh: 60}

	assert.Equal(t, 2500.0, m.For(Optimal)(2500))
	assert.InDelta(t, 125.0, m.For(Cheapest)(2500), 1e-9)
	assert.InDelta(t, 2.5, m.For(Fastest)(2500), 1e-9)
	assert.Equal(t, 42.0, m.For("bogus")(42))
}
