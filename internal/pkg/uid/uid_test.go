package uid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectID_Unique(t *testing.T) {
	g, err := NewObjectID()
	require.NoError(t, err)

	seen := make(map[string]struct{})
	for range 1000 {
		id := g.Generate()
		require.Len(t, id, 64)
		_, dup := seen[id]
		require.False(t, dup)
		seen[id] = struct{}{}
	}
}

func TestSnowflake_Increasing(t *testing.T) {
	s, err := NewSnowflake()
	require.NoError(t, err)

	a := s.Generate()
	b := s.Generate()
	assert.Greater(t, b, a)
}

func TestUUID(t *testing.T) {
	assert.Len(t, NewUUID().Generate(), 36)
	assert.NotEqual(t, NewUUID().Generate(), NewUUID().Generate())
}
