package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	pkgerrors "github.com/yungbote/relocation-intake/internal/pkg/errors"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
		_ = c.Error(err)
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondServiceError maps the service error sentinels onto statuses.
func RespondServiceError(c *gin.Context, err error) {
	status, code := StatusFor(err)
	if status >= http.StatusInternalServerError && status != http.StatusBadGateway {
		// keep internals out of the body
		_ = c.Error(err)
		c.JSON(status, ErrorEnvelope{Error: APIError{Message: http.StatusText(status), Code: code}})
		return
	}
	RespondError(c, status, code, err)
}

func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, pkgerrors.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, pkgerrors.ErrInvalidArgument):
		return http.StatusBadRequest, "invalid_argument"
	case errors.Is(err, pkgerrors.ErrCaseComplete):
		return http.StatusConflict, "case_complete"
	case errors.Is(err, pkgerrors.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, pkgerrors.ErrGateway):
		return http.StatusBadGateway, "llm_unavailable"
	case errors.Is(err, pkgerrors.ErrCorruptState):
		return http.StatusInternalServerError, "corrupt_state"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondAccepted(c *gin.Context, payload any) {
	c.JSON(http.StatusAccepted, payload)
}
