package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"

	"mrz-labeler/src/pkg/batch"
	"mrz-labeler/src/pkg/failure"
)

const (
	kindNotFound = "NOT_FOUND"
	kindConflict = "CONFLICT"
	kindInternal = "INTERNAL"
)

var errFileNotFound = errors.New("file not found")

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

/*
statusFor maps an error to its HTTP status:

	bad input, malformed batch id   400
	unknown batch, missing file     404
	remote service unavailable      503
	storage fault, anything else    500
*/
func statusFor(err error) (status int, kind string) {
	switch {
	case errors.Is(err, batch.ErrBadBatchID):
		return http.StatusBadRequest, string(failure.BadInput)
	case errors.Is(err, batch.ErrUnknownBatch), errors.Is(err, errFileNotFound):
		return http.StatusNotFound, kindNotFound
	}

	k, ok := failure.KindOf(err)
	if !ok {
		return http.StatusInternalServerError, kindInternal
	}
	switch k {
	case failure.BadInput:
		return http.StatusBadRequest, string(k)
	case failure.RemoteService:
		return http.StatusServiceUnavailable, string(k)
	default:
		return http.StatusInternalServerError, string(k)
	}
}

func respondError(c echo.Context, err error) error {
	status, kind := statusFor(err)
	var level tl.LogLevel = tl.Warning
	var color palette.Colorizer = palette.Yellow
	if status >= http.StatusInternalServerError {
		level, color = tl.Error, palette.Red
	}
	tl.Log(level, color, "Request '%s %s' failed with '%d': '%s'", c.Request().Method, c.Path(), status, err)
	return c.JSON(status, errorBody{Error: err.Error(), Kind: kind})
}

// respondStorageFault reports a batch-fatal plumbing error as 500.
func respondStorageFault(c echo.Context, e *xerr.Error) error {
	return respondError(c, failure.New(failure.Storage, c.Path(), failure.ErrStorage, fmt.Sprintf("%v", e)))
}

func badInput(op string, format string, args ...any) error {
	return failure.Newf(failure.BadInput, op, format, args...)
}
