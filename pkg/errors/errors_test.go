package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromErrorWrapsUnknown(t *testing.T) {
	err := FromError(fmt.Errorf("boom"))
	require.NotNil(t, err)
	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.Equal(t, ErrInternal.Code, err.Code)
}

func TestCloneKeepsIdentity(t *testing.T) {
	clone := Clone(ErrNotFound, "upload not found")
	assert.Equal(t, "upload not found", clone.Message)
	assert.True(t, stderrors.Is(clone, ErrNotFound))
	assert.False(t, stderrors.Is(clone, ErrValidation))
	assert.Equal(t, "not found", ErrNotFound.Message)
}

func TestFieldBuildsValidationError(t *testing.T) {
	err := Field("university", "Required.")
	assert.Equal(t, http.StatusBadRequest, err.Status)
	assert.Equal(t, map[string][]string{"university": {"Required."}}, err.Fields)
	assert.Nil(t, ErrValidation.Fields)
}

func TestWrappedErrorsUnwrap(t *testing.T) {
	inner := fmt.Errorf("db down")
	wrapped := fmt.Errorf("outer: %w", Wrap(inner, ErrInternal.Code, ErrInternal.Status, "failed"))
	assert.True(t, stderrors.Is(wrapped, inner))
	assert.Equal(t, ErrInternal.Code, FromError(wrapped).Code)
}
