package rest

import (
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/gin-gonic/gin"
)

// tokenKey holds the raw Bearer token in the gin context.
const tokenKey = "auth_token"

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Info(c.Request.Context(), "http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}

func (s *Server) recovered(c *gin.Context, p any) {
	s.logger.Error(c.Request.Context(), "panic in handler", "panic", p, "path", c.Request.URL.Path)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

// requireToken rejects requests without a Bearer token and stores the token
// for the handler, which validates it through UserService.Resolve.
func (s *Server) requireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(common.AuthorizationHeaderName)
		token, ok := strings.CutPrefix(header, common.BearerScheme)
		if !ok || strings.TrimSpace(token) == "" {
			s.writeError(c, common.ErrInvalidToken)
			c.Abort()
			return
		}

		c.Set(tokenKey, strings.TrimSpace(token))
		c.Next()
	}
}
