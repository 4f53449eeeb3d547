package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tmarkova/blogview/internal/auth"
)

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header. It returns "" if the header is missing or malformed.
func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

// AuthRequired is our "security guard" for routes that need a logged-in
// actor. Anyone arriving without valid credentials is sent to /login
// instead of getting an error page.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. --- Get Authorization Header ---
		tokenString := bearerToken(c)
		if tokenString == "" {
			c.Redirect(http.StatusSeeOther, "/login")
			c.Abort()
			return
		}

		// 2. --- Validate Token ---
		userID, err := auth.ValidateToken(tokenString)
		if err != nil {
			c.Redirect(http.StatusSeeOther, "/login")
			c.Abort()
			return
		}

		// 3. --- Success ---
		c.Set("userID", userID)
		c.Next()
	}
}

// OptionalAuth establishes the viewer's identity on public routes whose
// responses depend on who is looking (the post detail view shows
// authors their own unpublished posts). It never rejects the request:
// a missing or invalid token simply means an anonymous viewer.
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			c.Next()
			return
		}

		userID, err := auth.ValidateToken(tokenString)
		if err != nil {
			c.Next()
			return
		}

		c.Set("userID", userID)
		c.Next()
	}
}
