// Package result carries the success/data/error envelope every use case
// returns instead of a bare error.
package result

import (
	"github.com/rs/zerolog"

	"github.com/odonto/clinic/internal/platform/apperr"
)

type Result[T any] struct {
	Success bool        `json:"success"`
	Data    T           `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Kind    apperr.Kind `json:"-"`
}

func OK[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: data}
}

// Fail converts err into a failed result. Internal errors and timeouts are
// reported with their generic message only.
func Fail[T any](err error) Result[T] {
	switch kind := apperr.KindOf(err); kind {
	case apperr.KindInternal:
		return Result[T]{Error: apperr.InternalMessage, Kind: kind}
	case apperr.KindTimeout:
		return Result[T]{Error: apperr.TimeoutMessage, Kind: kind}
	default:
		ae, _ := apperr.As(err)
		return Result[T]{Error: ae.Message, Kind: kind}
	}
}

// Of builds a result from a (data, err) pair and logs unexpected failures
// under op before hiding them from the caller.
func Of[T any](logger zerolog.Logger, op string, data T, err error) Result[T] {
	if err == nil {
		return OK(data)
	}
	switch apperr.KindOf(err) {
	case apperr.KindInternal:
		logger.Error().Err(err).Str("op", op).Msg("use case failed")
	case apperr.KindTimeout:
		logger.Warn().Err(err).Str("op", op).Msg("use case timed out")
	}
	return Fail[T](err)
}

// Status is the HTTP status code matching the outcome.
func (r Result[T]) Status(success int) int {
	if r.Success {
		return success
	}
	return apperr.HTTPStatus(r.Kind)
}
