package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDirection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Direction
	}{
		{"yes", DirectionYes},
		{"Yes", DirectionYes},
		{"YES", DirectionYes},
		{" yes ", DirectionYes},
		{"no", DirectionNo},
		{"No", DirectionNo},
		{"\tNO\n", DirectionNo},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := ParseDirection(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDirectionInvalid(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "maybe", "y", "true", "0"} {
		_, err := ParseDirection(in)
		assert.ErrorIs(t, err, ErrInvalidDirection, "input %q", in)
	}
}

func TestMarketTokenFor(t *testing.T) {
	t.Parallel()

	m := Market{TokenIDYes: "tok-yes", TokenIDNo: "tok-no"}

	assert.Equal(t, "tok-yes", m.TokenFor(DirectionYes))
	assert.Equal(t, "tok-no", m.TokenFor(DirectionNo))
	assert.Empty(t, m.TokenFor(Direction("other")))
}

func TestMarketOutcome(t *testing.T) {
	t.Parallel()

	t.Run("unresolved", func(t *testing.T) {
		t.Parallel()
		m := Market{}
		_, ok := m.Outcome()
		assert.False(t, ok)
	})

	t.Run("mixed case outcome", func(t *testing.T) {
		t.Parallel()
		outcome := "Yes"
		m := Market{ResolutionOutcome: &outcome}
		d, ok := m.Outcome()
		require.True(t, ok)
		assert.Equal(t, DirectionYes, d)
	})

	t.Run("unparseable outcome", func(t *testing.T) {
		t.Parallel()
		outcome := "invalid"
		m := Market{ResolutionOutcome: &outcome}
		_, ok := m.Outcome()
		assert.False(t, ok)
	})
}
