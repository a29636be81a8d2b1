package gateway

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/newsbus/newsbus/contracts"
)

func (s *Server) listNews(c *gin.Context) {
	req := contracts.FindAllNewsRequest{Pagination: parsePagination(c)}

	items := []contracts.News{}
	if err := s.clients.News.Send(c.Request.Context(), contracts.PatternFindAllNews, req, &items); err != nil {
		s.fail(c, err)
		return
	}

	enriched, err := s.enrichNews(c.Request.Context(), items)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, enriched)
}

func (s *Server) searchNews(c *gin.Context) {
	req := contracts.SearchNewsRequest{
		Pagination: parsePagination(c),
		Title:      c.Query("title"),
		Body:       c.Query("body"),
	}

	var resp contracts.SearchNewsResponse
	if err := s.clients.News.Send(c.Request.Context(), contracts.PatternSearchNews, req, &resp); err != nil {
		s.fail(c, err)
		return
	}

	enriched, err := s.enrichNews(c.Request.Context(), resp.News)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"news": enriched, "total": resp.Total})
}

func (s *Server) getNews(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		s.badRequest(c, "invalid news id")
		return
	}

	var item contracts.News
	err := s.clients.News.Send(c.Request.Context(), contracts.PatternFindOneNews,
		contracts.FindOneNewsRequest{ID: id}, &item)
	if err != nil {
		s.fail(c, err)
		return
	}

	enriched, err := s.enrichNews(c.Request.Context(), []contracts.News{item})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, enriched[0])
}

// subscriptionNews lists news authored by the users the caller subscribes
// to: one identity round-trip for the author list, one news call, then
// the usual enrichment joins.
func (s *Server) subscriptionNews(c *gin.Context) {
	claims := s.claims(c)

	authorIDs := []int64{}
	err := s.clients.Auth.Send(c.Request.Context(), contracts.PatternUserSubscriptions,
		gin.H{"id": claims.UserID}, &authorIDs)
	if err != nil {
		s.fail(c, err)
		return
	}
	if len(authorIDs) == 0 {
		c.JSON(http.StatusOK, []contracts.NewsWithAuthor{})
		return
	}

	req := contracts.UserSubscriptionsNewsRequest{
		Pagination: parsePagination(c),
		AuthorIDs:  authorIDs,
	}
	items := []contracts.News{}
	if err := s.clients.News.Send(c.Request.Context(), contracts.PatternUserSubscriptionsNews, req, &items); err != nil {
		s.fail(c, err)
		return
	}

	enriched, err := s.enrichNews(c.Request.Context(), items)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, enriched)
}

// createNews is fire-and-forget: the gateway answers "accepted" as soon
// as the event is published; the news service stores the item when the
// event arrives.
func (s *Server) createNews(c *gin.Context) {
	var req contracts.CreateNewsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "malformed request body")
		return
	}
	if req.Title == "" || req.Body == "" {
		s.badRequest(c, "title and body are required")
		return
	}
	req.AuthorID = s.claims(c).UserID

	if err := s.clients.News.Emit(c.Request.Context(), contracts.PatternCreateNews, req); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, contracts.AckResponse{Success: true, Message: "accepted"})
}

func (s *Server) updateNews(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		s.badRequest(c, "invalid news id")
		return
	}

	var req contracts.UpdateNewsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "malformed request body")
		return
	}
	req.ID = id
	req.AuthorID = s.claims(c).UserID

	var item contracts.News
	if err := s.clients.News.Send(c.Request.Context(), contracts.PatternUpdateNews, req, &item); err != nil {
		s.fail(c, err)
		return
	}

	// The file set is owned by the files service; replace it only after
	// the news update was confirmed.
	if req.Files != nil {
		var files contracts.NewsFiles
		err := s.clients.Files.Send(c.Request.Context(), contracts.PatternUpdateFiles,
			contracts.UpdateFilesRequest{NewsID: id, Files: req.Files}, &files)
		if err != nil {
			s.fail(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, item)
}

func (s *Server) deleteNews(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		s.badRequest(c, "invalid news id")
		return
	}

	req := contracts.DeleteNewsRequest{ID: id, AuthorID: s.claims(c).UserID}
	var resp contracts.AckResponse
	if err := s.clients.News.Send(c.Request.Context(), contracts.PatternDeleteNews, req, &resp); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
