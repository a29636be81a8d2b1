package gateway

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/newsbus/newsbus/contracts"
)

func parsePagination(c *gin.Context) contracts.Pagination {
	page, _ := strconv.Atoi(c.Query("page"))
	perPage, _ := strconv.Atoi(c.Query("perPage"))
	return contracts.Pagination{Page: page, PerPage: perPage}
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

func (s *Server) register(c *gin.Context) {
	var req contracts.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "malformed request body")
		return
	}

	var resp contracts.AuthResponse
	if err := s.clients.Auth.Send(c.Request.Context(), contracts.PatternRegister, req, &resp); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (s *Server) login(c *gin.Context) {
	var req contracts.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "malformed request body")
		return
	}

	var resp contracts.AuthResponse
	if err := s.clients.Auth.Send(c.Request.Context(), contracts.PatternLogin, req, &resp); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) listUsers(c *gin.Context) {
	req := contracts.GetAllUsersRequest{Pagination: parsePagination(c)}

	users := []contracts.User{}
	if err := s.clients.Auth.Send(c.Request.Context(), contracts.PatternGetAllUsers, req, &users); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (s *Server) searchUsers(c *gin.Context) {
	req := contracts.SearchUsersRequest{
		Username: c.Query("username"),
		Email:    c.Query("email"),
	}

	users := []contracts.User{}
	if err := s.clients.Auth.Send(c.Request.Context(), contracts.PatternSearchUsers, req, &users); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (s *Server) getUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		s.badRequest(c, "invalid user id")
		return
	}

	var user contracts.User
	err := s.clients.Auth.Send(c.Request.Context(), contracts.PatternGetUserByID,
		gin.H{"id": id}, &user)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) profile(c *gin.Context) {
	claims := s.claims(c)

	var profile contracts.UserProfile
	err := s.clients.Auth.Send(c.Request.Context(), contracts.PatternGetUserProfile,
		gin.H{"id": claims.UserID}, &profile)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (s *Server) updateProfile(c *gin.Context) {
	var req contracts.UpdateUserProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "malformed request body")
		return
	}
	req.ID = s.claims(c).UserID

	var user contracts.User
	if err := s.clients.Auth.Send(c.Request.Context(), contracts.PatternUpdateUserProfile, req, &user); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) updateAvatar(c *gin.Context) {
	var req contracts.UpdateUserAvatarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "malformed request body")
		return
	}
	req.ID = s.claims(c).UserID

	var user contracts.User
	if err := s.clients.Auth.Send(c.Request.Context(), contracts.PatternUpdateUserAvatar, req, &user); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) subscribe(c *gin.Context) {
	targetID, ok := parseID(c)
	if !ok {
		s.badRequest(c, "invalid user id")
		return
	}

	req := contracts.SubscribeOnUserRequest{
		UserID:             s.claims(c).UserID,
		SubscriptionUserID: targetID,
	}
	var resp contracts.AckResponse
	if err := s.clients.Auth.Send(c.Request.Context(), contracts.PatternSubscribeOnUser, req, &resp); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// deleteProfile is fire-and-forget: the deletion is accepted, not
// confirmed.
func (s *Server) deleteProfile(c *gin.Context) {
	req := contracts.DeleteUserRequest{ID: s.claims(c).UserID}
	if err := s.clients.Auth.Emit(c.Request.Context(), contracts.PatternDeleteUser, req); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, contracts.AckResponse{Success: true, Message: "accepted"})
}
