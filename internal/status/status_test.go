package status

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateWorstStateWins(t *testing.T) {
	c := NewChecker()
	c.Register("templates", func(context.Context) (string, string) { return StateOperational, "" })
	c.Register("tmdb", func(context.Context) (string, string) { return StateDegraded, "api key missing" })

	s := c.Evaluate(context.Background())
	assert.Equal(t, StateDegraded, s.State)
	assert.True(t, s.Healthy())
	require.Len(t, s.Components, 2)
	assert.Equal(t, "templates", s.Components[0].Name)
	assert.Equal(t, "api key missing", s.Components[1].Detail)

	c.Register("templates", func(context.Context) (string, string) { return StateDown, "parse error" })
	s = c.Evaluate(context.Background())
	assert.Equal(t, StateDown, s.State)
	assert.False(t, s.Healthy())
}

func TestEvaluateEmpty(t *testing.T) {
	s := NewChecker().Evaluate(context.Background())
	assert.Equal(t, StateOperational, s.State)
	assert.Empty(t, s.Components)
}
