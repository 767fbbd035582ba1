package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataForUnknownCodeFallsBackToInternal(t *testing.T) {
	meta := MetadataFor(Code("SOMETHING_ELSE"))
	assert.Equal(t, http.StatusInternalServerError, meta.HTTPStatus)
}

func TestMetadataStatuses(t *testing.T) {
	cases := map[Code]int{
		CodeAlreadyExists:      http.StatusConflict,
		CodeInvalidCredentials: http.StatusUnauthorized,
		CodeForbidden:          http.StatusForbidden,
		CodeNotFound:           http.StatusNotFound,
		CodeExpiredToken:       http.StatusUnauthorized,
		CodeRateLimited:        http.StatusTooManyRequests,
	}
	for code, status := range cases {
		assert.Equal(t, status, MetadataFor(code).HTTPStatus, string(code))
	}
}

func TestAsFindsWrappedError(t *testing.T) {
	base := New(CodeNotFound, "product not found")
	wrapped := fmt.Errorf("loading: %w", base)

	got := As(wrapped)
	require.NotNil(t, got)
	assert.Equal(t, CodeNotFound, got.Code())
	assert.Equal(t, "product not found", got.Message())
	assert.True(t, errors.Is(wrapped, base))
}

func TestCodeOfUntypedError(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	assert.Nil(t, As(nil))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("duplicate key value")
	err := Wrap(CodeAlreadyExists, cause, "sku already exists")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "ALREADY_EXISTS: sku already exists", err.Error())
}
