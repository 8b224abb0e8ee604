package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHMACSHA256(t *testing.T) {
	h := NewHMACSHA256([]byte("k"))

	d := h.Hash("verification-id")
	assert.Len(t, d, 64)
	assert.Equal(t, d, h.Hash("verification-id"))
	assert.True(t, h.Verify(d, "verification-id"))
	assert.False(t, h.Verify(d, "other"))
	assert.False(t, h.Verify("zz", "verification-id"))
	assert.NotEqual(t, d, NewHMACSHA256([]byte("other")).Hash("verification-id"))
}
