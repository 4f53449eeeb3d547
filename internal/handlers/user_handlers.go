package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-sql-driver/mysql"
	"github.com/tmarkova/blogview/internal/auth"
	"github.com/tmarkova/blogview/internal/models"
)

// isDuplicateEntry reports whether err is a MySQL unique-key violation.
func isDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}

// --- Registration ---

// RegisterUserInput is separate from models.User because we never
// accept an 'id' or 'isStaff' from the client.
type RegisterUserInput struct {
	Username  string `json:"username" binding:"required,alphanum,max=150"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"firstName" binding:"max=150"`
	LastName  string `json:"lastName" binding:"max=150"`
}

// Register is the handler for POST /register.
func (h *Handlers) Register(c *gin.Context) {
	var input RegisterUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user := &models.User{
		Username:  input.Username,
		Email:     input.Email,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	var password models.Password
	if err := password.Set(input.Password); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}
	user.PasswordHash = password.Hash

	result, err := h.DB.Exec(
		`INSERT INTO users (username, email, password_hash, first_name, last_name, is_staff, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, FALSE, ?, ?)`,
		user.Username, user.Email, user.PasswordHash, user.FirstName, user.LastName, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isDuplicateEntry(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "Username or email already taken"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}
	user.ID, _ = result.LastInsertId()

	// The 'json:"-"' tag keeps the password hash out of the response.
	c.JSON(http.StatusCreated, gin.H{"message": "Registered successfully", "user": user})
}

// --- Login ---

type LoginInput struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login is the handler for POST /login.
func (h *Handlers) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	err := h.DB.QueryRow(
		"SELECT id, username, password_hash FROM users WHERE username = ?",
		input.Username,
	).Scan(&user.ID, &user.Username, &user.PasswordHash)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	var password models.Password
	password.Hash = user.PasswordHash

	match, err := password.Matches(input.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check password"})
		return
	}
	if !match {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := auth.GenerateToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"user": gin.H{
			"id":       user.ID,
			"username": user.Username,
		},
	})
}

// LoginPage is the handler for GET /login, the landing target for
// anonymous requests bounced off required-auth routes.
func (h *Handlers) LoginPage(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Authentication required. POST username and password to /login to obtain a token.",
	})
}

// --- Profile ---

// GetProfile is the handler for GET /users/{username}/.
// An author's profile lists ALL their posts, unpublished and
// future-dated included, so there is no live filter here.
func (h *Handlers) GetProfile(c *gin.Context) {
	username := c.Param("username")

	var profile models.User
	err := h.DB.QueryRow(
		"SELECT id, username, email, first_name, last_name, created_at, updated_at FROM users WHERE username = ?",
		username,
	).Scan(&profile.ID, &profile.Username, &profile.Email, &profile.FirstName, &profile.LastName, &profile.CreatedAt, &profile.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	page, limit, offset := pageParams(c)

	query := `SELECT` + feedColumns + `
		FROM posts p
		JOIN users u ON u.id = p.author_id
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.author_id = ?
		ORDER BY p.pub_date DESC
		LIMIT ? OFFSET ?`

	rows, err := h.DB.Query(query, profile.ID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database query failed"})
		return
	}
	defer rows.Close()

	posts, err := scanFeedRows(rows)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan post row"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": profile, "posts": posts, "page": page})
}

// UpdateProfileInput uses pointers so only submitted fields change.
type UpdateProfileInput struct {
	Username  *string `json:"username" binding:"omitempty,alphanum,max=150"`
	Email     *string `json:"email" binding:"omitempty,email"`
	FirstName *string `json:"firstName" binding:"omitempty,max=150"`
	LastName  *string `json:"lastName" binding:"omitempty,max=150"`
}

// UpdateProfile is the handler for GET/POST /users/{username}/edit/.
// The edited object is always the acting user: the username in the
// URL is never resolved, so you cannot edit someone else's profile by
// crafting the path.
func (h *Handlers) UpdateProfile(c *gin.Context) {
	userID_raw, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID not found in context"})
		return
	}
	userID := userID_raw.(int64)

	if c.Request.Method == http.MethodGet {
		var user models.User
		err := h.DB.QueryRow(
			"SELECT id, username, email, first_name, last_name, created_at, updated_at FROM users WHERE id = ?",
			userID,
		).Scan(&user.ID, &user.Username, &user.Email, &user.FirstName, &user.LastName, &user.CreatedAt, &user.UpdatedAt)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": user})
		return
	}

	var input UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// --- Dynamically Build UPDATE Query ---
	sets := []string{"updated_at = ?"}
	args := []interface{}{time.Now()}

	if input.Username != nil {
		sets = append(sets, "username = ?")
		args = append(args, *input.Username)
	}
	if input.Email != nil {
		sets = append(sets, "email = ?")
		args = append(args, *input.Email)
	}
	if input.FirstName != nil {
		sets = append(sets, "first_name = ?")
		args = append(args, *input.FirstName)
	}
	if input.LastName != nil {
		sets = append(sets, "last_name = ?")
		args = append(args, *input.LastName)
	}

	args = append(args, userID)
	query := "UPDATE users SET " + strings.Join(sets, ", ") + " WHERE id = ?"

	if _, err := h.DB.Exec(query, args...); err != nil {
		if isDuplicateEntry(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "Username or email already taken"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile updated"})
}
