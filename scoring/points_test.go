package scoring_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orientraid/raidapi/scoring"
)

func TestLinearPolicy(t *testing.T) {
	p := scoring.LinearPolicy{}
	assert.Equal(t, 10, p.Points(1, 10))
	assert.Equal(t, 1, p.Points(10, 10))
	assert.Equal(t, 5, p.Points(6, 10))
	assert.Equal(t, 0, p.Points(11, 10))
	assert.Equal(t, 0, p.Points(0, 10))
}

func TestLoadTablePolicy(t *testing.T) {
	t.Run("with header", func(t *testing.T) {
		p, err := scoring.LoadTablePolicy(strings.NewReader("rank,points\n1,100\n2,80\n3,60\n"))
		require.NoError(t, err)
		assert.Equal(t, 100, p.Points(1, 50))
		assert.Equal(t, 80, p.Points(2, 50))
		assert.Equal(t, 60, p.Points(3, 50))
		// Ranks past the table earn nothing, whatever the partition size.
		assert.Equal(t, 0, p.Points(4, 50))
	})

	t.Run("without header", func(t *testing.T) {
		p, err := scoring.LoadTablePolicy(strings.NewReader("1,25\n2,18\n"))
		require.NoError(t, err)
		assert.Equal(t, 25, p.Points(1, 2))
		assert.Equal(t, 18, p.Points(2, 2))
	})

	t.Run("non-contiguous ranks rejected", func(t *testing.T) {
		_, err := scoring.LoadTablePolicy(strings.NewReader("1,100\n3,60\n"))
		assert.Error(t, err)
	})

	t.Run("bad points value rejected", func(t *testing.T) {
		_, err := scoring.LoadTablePolicy(strings.NewReader("1,lots\n"))
		assert.Error(t, err)
	})

	t.Run("empty table rejected", func(t *testing.T) {
		_, err := scoring.LoadTablePolicy(strings.NewReader(""))
		assert.Error(t, err)

		_, err = scoring.LoadTablePolicy(strings.NewReader("rank,points\n"))
		assert.Error(t, err)
	})
}
