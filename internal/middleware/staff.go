package middleware

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"
)

//
// --- Staff Middleware ---
//
// Designed to be USED *AFTER* AuthRequired(). It reads the 'userID'
// from the context, queries the DB for the user's staff flag, and
// enforces it. Category administration is staff-only.
//

// StaffRequired takes the DB connection as an argument
// and *returns* the gin.HandlerFunc.
func StaffRequired(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Get userID from AuthRequired
		userID_raw, exists := c.Get("userID")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID not found in context (AuthRequired must run first)"})
			c.Abort()
			return
		}
		userID := userID_raw.(int64)

		// 2. Query DB for the staff flag
		var isStaff bool
		err := db.QueryRow("SELECT is_staff FROM users WHERE id = ?", userID).Scan(&isStaff)
		if err != nil {
			if err == sql.ErrNoRows {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user"})
				c.Abort()
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error checking permissions"})
			c.Abort()
			return
		}

		// 3. Check permission
		if !isStaff {
			c.JSON(http.StatusForbidden, gin.H{"error": "Access denied: staff only"})
			c.Abort()
			return
		}

		c.Next()
	}
}
