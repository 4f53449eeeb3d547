package handlers

import (
	"database/sql"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tmarkova/blogview/internal/models"
)

// CommentInput is the form body for both add and edit.
type CommentInput struct {
	Text string `json:"text" binding:"required"`
}

// postComments returns a post's comments, oldest first, with author
// usernames joined in for rendering.
func (h *Handlers) postComments(postID int64) ([]*models.Comment, error) {
	query := `
		SELECT cm.id, cm.text, cm.post_id, cm.author_id, u.username, cm.created_at
		FROM comments cm
		JOIN users u ON u.id = cm.author_id
		WHERE cm.post_id = ?
		ORDER BY cm.created_at ASC`

	rows, err := h.DB.Query(query, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []*models.Comment{}
	for rows.Next() {
		var cm models.Comment
		if err := rows.Scan(&cm.ID, &cm.Text, &cm.PostID, &cm.AuthorID, &cm.Author, &cm.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, &cm)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return comments, nil
}

// fetchComment loads a single comment with its author's username.
func (h *Handlers) fetchComment(commentID int64) (*models.Comment, error) {
	query := `
		SELECT cm.id, cm.text, cm.post_id, cm.author_id, u.username, cm.created_at
		FROM comments cm
		JOIN users u ON u.id = cm.author_id
		WHERE cm.id = ?`

	var cm models.Comment
	err := h.DB.QueryRow(query, commentID).Scan(
		&cm.ID, &cm.Text, &cm.PostID, &cm.AuthorID, &cm.Author, &cm.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &cm, nil
}

// AddComment is the handler for POST /comments/{post_id}/add/.
// The comment's author is always the acting user and the post is always
// the one looked up here; neither is accepted from the body.
func (h *Handlers) AddComment(c *gin.Context) {
	userID_raw, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID not found in context"})
		return
	}
	userID := userID_raw.(int64)

	postID, err := strconv.ParseInt(c.Param("post_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	var postExists int
	err = h.DB.QueryRow("SELECT 1 FROM posts WHERE id = ?", postID).Scan(&postExists)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	var input CommentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.DB.Exec(
		"INSERT INTO comments (text, post_id, author_id, created_at) VALUES (?, ?, ?, ?)",
		input.Text, postID, userID, time.Now(),
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add comment"})
		return
	}
	commentID, _ := result.LastInsertId()

	c.Header("Location", fmt.Sprintf("/posts/%d/", postID))
	c.JSON(http.StatusCreated, gin.H{"message": "Comment added", "commentId": commentID})
}

// EditComment is the handler for GET/POST /comments/{post_id}/edit/{comment_id}/.
// A non-owner is silently redirected to the detail view. That is
// deliberately softer than the post-delete Forbidden.
func (h *Handlers) EditComment(c *gin.Context) {
	userID_raw, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID not found in context"})
		return
	}
	userID := userID_raw.(int64)

	postID, err := strconv.ParseInt(c.Param("post_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}
	commentID, err := strconv.ParseInt(c.Param("comment_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
		return
	}

	cm, err := h.fetchComment(commentID)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if !cm.CanModify(userID) {
		c.Redirect(http.StatusSeeOther, fmt.Sprintf("/posts/%d/", postID))
		return
	}

	if c.Request.Method == http.MethodGet {
		c.JSON(http.StatusOK, gin.H{"comment": cm})
		return
	}

	var input CommentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := h.DB.Exec("UPDATE comments SET text = ? WHERE id = ?", input.Text, commentID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update comment"})
		return
	}

	c.Header("Location", fmt.Sprintf("/posts/%d/", postID))
	c.JSON(http.StatusOK, gin.H{"message": "Comment updated"})
}

// DeleteComment is the handler for GET/POST /comments/{post_id}/delete/{comment_id}/.
// Deletion only happens on a confirming POST from the owner. Everyone
// else (owner on GET, non-owner on anything) gets the confirmation
// view back with nothing modified and no error surfaced.
func (h *Handlers) DeleteComment(c *gin.Context) {
	userID_raw, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID not found in context"})
		return
	}
	userID := userID_raw.(int64)

	postID, err := strconv.ParseInt(c.Param("post_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}
	commentID, err := strconv.ParseInt(c.Param("comment_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
		return
	}

	cm, err := h.fetchComment(commentID)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if c.Request.Method == http.MethodPost && cm.CanModify(userID) {
		if _, err := h.DB.Exec("DELETE FROM comments WHERE id = ?", commentID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete comment"})
			return
		}
		c.Header("Location", fmt.Sprintf("/posts/%d/", postID))
		c.JSON(http.StatusOK, gin.H{"message": "Comment deleted"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"comment": cm, "message": "Submit POST as the author to confirm deletion"})
}
