package result

import (
	"bytes"
	"context"
	"fmt"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odonto/clinic/internal/platform/apperr"
)

func TestOf_Success(t *testing.T) {
	r := Of(zerolog.Nop(), "op", 42, nil)
	assert.True(t, r.Success)
	assert.Equal(t, 42, r.Data)
	assert.Equal(t, http.StatusCreated, r.Status(http.StatusCreated))
}

func TestOf_BusinessError(t *testing.T) {
	r := Of(zerolog.Nop(), "op", 0, apperr.Business("atendimento já cancelado"))
	assert.False(t, r.Success)
	assert.Equal(t, "atendimento já cancelado", r.Error)
	assert.Equal(t, http.StatusBadRequest, r.Status(http.StatusOK))
}

func TestOf_InternalErrorIsHiddenAndLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	r := Of(logger, "finish attendance", "", errors.New("pq: relation does not exist"))
	assert.False(t, r.Success)
	assert.Equal(t, apperr.InternalMessage, r.Error)
	assert.Equal(t, http.StatusInternalServerError, r.Status(http.StatusOK))
	assert.Contains(t, buf.String(), "finish attendance")
	assert.Contains(t, buf.String(), "relation does not exist")
}

func TestOf_DeadlineIsTimeout(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	r := Of(logger, "list attendances", 0, fmt.Errorf("query: %w", context.DeadlineExceeded))
	assert.False(t, r.Success)
	assert.Equal(t, apperr.KindTimeout, r.Kind)
	assert.Equal(t, apperr.TimeoutMessage, r.Error)
	assert.Equal(t, http.StatusGatewayTimeout, r.Status(http.StatusOK))
	assert.Contains(t, buf.String(), "timed out")
	assert.NotContains(t, buf.String(), "use case failed")
}

func TestResult_JSON(t *testing.T) {
	raw, err := json.Marshal(Fail[*struct{}](apperr.NotFound("atendimento não encontrado")))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"error":"atendimento não encontrado"}`, string(raw))

	raw, err = json.Marshal(OK(map[string]int{"n": 1}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"data":{"n":1}}`, string(raw))
}
