package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/coursekit/examforge/internal/engine"
)

// EngineError translates an engine error into the envelope's HTTP status and
// error code. Unknown errors (storage failures propagated unchanged) map to a
// 500 so nothing leaks to the client.
func EngineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, engine.ErrNotFound):
		Fail(c, http.StatusNotFound, ErrNotFound)
	case errors.Is(err, engine.ErrDuplicateQuestion):
		Fail(c, http.StatusConflict, ErrDuplicateQuestion)
	case errors.Is(err, engine.ErrInvalidOrdering):
		Fail(c, http.StatusUnprocessableEntity, ErrInvalidOrdering)
	case errors.Is(err, engine.ErrInvalidValue):
		Fail(c, http.StatusUnprocessableEntity, ErrInvalidValue)
	case errors.Is(err, engine.ErrEmptyExam):
		Fail(c, http.StatusUnprocessableEntity, ErrEmptyExam)
	case errors.Is(err, engine.ErrAlreadyFinalized):
		Fail(c, http.StatusConflict, ErrAlreadyFinalized)
	case errors.Is(err, engine.ErrPermission):
		Fail(c, http.StatusForbidden, ErrPermissionDenied)
	case errors.Is(err, engine.ErrGenerationUnavailable):
		Fail(c, http.StatusBadGateway, ErrGenerationUnavailable)
	default:
		Fail(c, http.StatusInternalServerError, ErrInternal)
	}
}
