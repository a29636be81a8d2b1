package gateway

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/newsbus/newsbus/contracts"
)

func (s *Server) createComment(c *gin.Context) {
	var req contracts.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "malformed request body")
		return
	}
	req.AuthorID = s.claims(c).UserID

	var comment contracts.Comment
	if err := s.clients.Comments.Send(c.Request.Context(), contracts.PatternCreateComment, req, &comment); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (s *Server) listComments(c *gin.Context) {
	req := contracts.FindAllCommentsRequest{Pagination: parsePagination(c)}

	comments := []contracts.Comment{}
	if err := s.clients.Comments.Send(c.Request.Context(), contracts.PatternFindAllComments, req, &comments); err != nil {
		s.fail(c, err)
		return
	}

	enriched, err := s.enrichComments(c.Request.Context(), comments)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, enriched)
}

func (s *Server) listNewsComments(c *gin.Context) {
	newsID, ok := parseID(c)
	if !ok {
		s.badRequest(c, "invalid news id")
		return
	}

	req := contracts.FindNewsCommentsRequest{
		Pagination: parsePagination(c),
		NewsID:     newsID,
	}
	comments := []contracts.Comment{}
	if err := s.clients.Comments.Send(c.Request.Context(), contracts.PatternFindNewsComments, req, &comments); err != nil {
		s.fail(c, err)
		return
	}

	enriched, err := s.enrichComments(c.Request.Context(), comments)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, enriched)
}

func (s *Server) getComment(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		s.badRequest(c, "invalid comment id")
		return
	}

	var comment contracts.Comment
	err := s.clients.Comments.Send(c.Request.Context(), contracts.PatternFindCommentByID,
		contracts.FindCommentByIDRequest{ID: id}, &comment)
	if err != nil {
		s.fail(c, err)
		return
	}

	enriched, err := s.enrichComments(c.Request.Context(), []contracts.Comment{comment})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, enriched[0])
}

func (s *Server) updateComment(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		s.badRequest(c, "invalid comment id")
		return
	}

	var req contracts.UpdateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "malformed request body")
		return
	}
	req.ID = id
	req.AuthorID = s.claims(c).UserID

	var comment contracts.Comment
	if err := s.clients.Comments.Send(c.Request.Context(), contracts.PatternUpdateComment, req, &comment); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

func (s *Server) deleteComment(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		s.badRequest(c, "invalid comment id")
		return
	}

	req := contracts.DeleteCommentRequest{ID: id, AuthorID: s.claims(c).UserID}
	var resp contracts.AckResponse
	if err := s.clients.Comments.Send(c.Request.Context(), contracts.PatternDeleteComment, req, &resp); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
