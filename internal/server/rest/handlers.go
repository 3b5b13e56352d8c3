package rest

import (
	"net/http"

	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/gin-gonic/gin"
)

func (s *Server) register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c)
		return
	}

	resp, err := s.users.Register(c.Request.Context(), req)
	if err != nil {
		s.writeError(c, err)
		return
	}

	s.logger.Info(c.Request.Context(), "user registered", "user_id", resp.UserID)
	c.JSON(http.StatusOK, resp)
}

func (s *Server) login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c)
		return
	}

	resp, err := s.users.Login(c.Request.Context(), req)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{Status: "OK", Service: s.serviceName})
}

func (s *Server) me(c *gin.Context) {
	user, err := s.users.Resolve(c.Request.Context(), c.GetString(tokenKey))
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.NewUserResponse(user))
}
