package handlers

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handlers struct holds all dependencies for our handlers.
type Handlers struct {
	DB *sql.DB
}

// currentUserID returns the acting user's ID, or 0 for an anonymous
// viewer. The ID is placed in the context by the auth middleware.
func currentUserID(c *gin.Context) int64 {
	if v, exists := c.Get("userID"); exists {
		return v.(int64)
	}
	return 0
}

// requireUser is for handlers under the /posts dispatch, which runs
// behind the optional auth middleware only. Anonymous actors are sent
// to /login; callers must return immediately when ok is false.
func requireUser(c *gin.Context) (int64, bool) {
	userID := currentUserID(c)
	if userID == 0 {
		c.Redirect(http.StatusSeeOther, "/login")
		c.Abort()
		return 0, false
	}
	return userID, true
}
