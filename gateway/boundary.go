package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/newsbus/newsbus/contracts"
	"github.com/newsbus/newsbus/messaging"
)

// errorBody is the wire shape of every gateway failure. Raw errors and
// stack traces never cross this boundary.
type errorBody struct {
	Timestamp time.Time    `json:"timestamp"`
	Path      string       `json:"path"`
	Error     errorDetails `json:"error"`
}

type errorDetails struct {
	Message string `json:"message"`
	Name    string `json:"name"`
	Status  int    `json:"status"`
}

// fail converts any downstream error into the boundary shape. Timeouts
// and unexpected failures are logged with the request route and reported
// to the logger destination.
func (s *Server) fail(c *gin.Context, err error) {
	path := c.Request.URL.Path
	method := c.Request.Method

	var remote *contracts.RemoteError
	switch {
	case errors.As(err, &remote):
		s.render(c, remote.Status, remote.Name, remote.Message)

	case errors.Is(err, messaging.ErrRequestTimeout),
		errors.Is(err, context.DeadlineExceeded):
		s.logger.Error("request timed out", "method", method, "url", path, "error", err)
		s.emitLog(c, contracts.LogError, "request timed out", fmt.Sprintf("%s %s", method, path))
		s.render(c, http.StatusRequestTimeout, "TimeoutError", "request timed out")

	default:
		s.logger.Error("request failed", "method", method, "url", path, "error", err)
		s.emitLog(c, contracts.LogError, "request failed", fmt.Sprintf("%s %s", method, path))
		s.render(c, http.StatusInternalServerError, "InternalError", "internal error")
	}
}

// badRequest reports a malformed request body or parameter.
func (s *Server) badRequest(c *gin.Context, message string) {
	s.render(c, http.StatusBadRequest, "ValidationError", message)
}

func (s *Server) render(c *gin.Context, status int, name, message string) {
	c.AbortWithStatusJSON(status, errorBody{
		Timestamp: time.Now().UTC(),
		Path:      c.Request.URL.Path,
		Error: errorDetails{
			Message: message,
			Name:    name,
			Status:  status,
		},
	})
}

// emitLog reports a boundary event to the logger destination. The emit is
// detached from the request context: by the time a timeout is reported
// that context is already expired.
func (s *Server) emitLog(c *gin.Context, logType contracts.LogType, message, info string) {
	if s.clients.Logs == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), 5*time.Second)
	defer cancel()

	record := contracts.NewLogRecord(contracts.ServiceGateway, logType, message, info)
	if err := s.clients.Logs.Emit(ctx, contracts.PatternCreateLog, record); err != nil {
		s.logger.Warn("failed to emit log event", "error", err)
	}
}
