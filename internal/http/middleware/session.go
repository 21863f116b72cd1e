package middleware

import (
	"net/http"
	"strings"

	"promptmatch/internal/domain"
	"promptmatch/internal/service"

	"github.com/gin-gonic/gin"
)

const sessionKey = "session"

// Session authenticates the request with a session token from the
// Authorization header (Bearer) or the token query parameter. On routes
// with an :id parameter the token must belong to that match.
func Session(tokens *service.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
			token = strings.TrimPrefix(h, "Bearer ")
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token required"})
			return
		}

		sess, err := tokens.Parse(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		if id := c.Param("id"); id != "" && id != sess.MatchID {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "token does not belong to this game"})
			return
		}

		c.Set(sessionKey, sess)
		c.Next()
	}
}

func SessionFrom(c *gin.Context) (domain.Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return domain.Session{}, false
	}
	sess, ok := v.(domain.Session)
	return sess, ok
}
