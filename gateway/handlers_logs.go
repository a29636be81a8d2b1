package gateway

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/newsbus/newsbus/contracts"
)

func (s *Server) listLogs(c *gin.Context) {
	req := contracts.GetAllLogsRequest{
		Pagination: parsePagination(c),
		Type:       contracts.LogType(c.Query("type")),
	}

	records := []contracts.LogRecord{}
	if err := s.clients.Logs.Send(c.Request.Context(), contracts.PatternGetAllLogs, req, &records); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

// clearLogs is fire-and-forget, like every other event.
func (s *Server) clearLogs(c *gin.Context) {
	req := contracts.ClearLogsRequest{Type: contracts.LogType(c.Query("type"))}
	if err := s.clients.Logs.Emit(c.Request.Context(), contracts.PatternClearLogs, req); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, contracts.AckResponse{Success: true, Message: "accepted"})
}
