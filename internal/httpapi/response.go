package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nguyentantai21042004/lecture-notes/internal/intake"
	"github.com/nguyentantai21042004/lecture-notes/internal/lecture"
	"github.com/nguyentantai21042004/lecture-notes/internal/runs"
)

// dataResponse is the success envelope.
type dataResponse struct {
	Data any `json:"data"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func respond(c *gin.Context, status int, data any) {
	c.JSON(status, dataResponse{Data: data})
}

func respondError(c *gin.Context, status int, err error) {
	c.AbortWithStatusJSON(status, errorResponse{Error: err.Error()})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, runs.ErrNotFound), errors.Is(err, errRecordingNotFound):
		return http.StatusNotFound
	case errors.Is(err, intake.ErrUnsupportedFormat), errors.Is(err, intake.ErrInvalidFrame):
		return http.StatusBadRequest
	case errors.Is(err, intake.ErrRecorderClosed):
		return http.StatusConflict
	case errors.Is(err, intake.ErrBufferFull), errors.Is(err, intake.ErrTooManyRecordings):
		return http.StatusTooManyRequests
	case errors.Is(err, lecture.ErrClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
