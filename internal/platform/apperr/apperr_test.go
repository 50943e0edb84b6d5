package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindBusiness, KindOf(Business("x")))
	assert.Equal(t, KindNotFound, KindOf(fmt.Errorf("wrap: %w", NotFound("x"))))
	assert.Equal(t, KindInternal, KindOf(errors.New("raw")))
	assert.Equal(t, KindTimeout, KindOf(fmt.Errorf("query patients: %w", context.DeadlineExceeded)))
	assert.Equal(t, KindTimeout, KindOf(Internal("finish attendance", context.DeadlineExceeded)))
	assert.Equal(t, KindInternal, KindOf(context.Canceled))
}

func TestAs(t *testing.T) {
	ae, ok := As(fmt.Errorf("wrap: %w", Conflict("duplicated")))
	require.True(t, ok)
	assert.Equal(t, "duplicated", ae.Message)

	_, ok = As(errors.New("raw"))
	assert.False(t, ok)
}

func TestInternalUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := Internal("load attendance", cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestIs(t *testing.T) {
	assert.True(t, Is(Forbidden("no"), KindForbidden))
	assert.False(t, Is(nil, KindInternal))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindValidation: http.StatusBadRequest,
		KindBusiness:   http.StatusBadRequest,
		KindNotFound:   http.StatusNotFound,
		KindForbidden:  http.StatusForbidden,
		KindConflict:   http.StatusConflict,
		KindTimeout:    http.StatusGatewayTimeout,
		KindInternal:   http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, HTTPStatus(kind), string(kind))
	}
}
