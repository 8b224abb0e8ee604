package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	UserID string `json:"userId" validate:"omitempty,account_id"`
	Issuer string `json:"issuer" validate:"omitempty,max=8"`
	Code   string `json:"code"   validate:"required"`
}

func TestV10Validator(t *testing.T) {
	v, err := NewV10Validator()
	require.NoError(t, err)

	assert.NoError(t, v.Validate(sample{UserID: "abc-123", Code: "1"}))
	assert.NoError(t, v.Validate(sample{Code: "1"}))

	err = v.Validate(sample{UserID: "bad id!", Issuer: "waytoolongissuer"})
	var verr V10ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "userId must be a valid account id", verr["userId"])
	assert.Contains(t, verr, "issuer")
	assert.Contains(t, verr, "code")
	assert.Contains(t, verr.Error(), "userId")
}
