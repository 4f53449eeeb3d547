package handlers

import (
	"database/sql"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tmarkova/blogview/internal/models"
)

// postsPerPage is the feed page size.
const postsPerPage = 10

// feedColumns is the SELECT list shared by every post listing. The
// comment count is annotated with a correlated subquery so each page
// costs a single round trip.
const feedColumns = `
	p.id, p.title, p.text, p.pub_date, p.is_published, p.image_url,
	p.author_id, u.username,
	c.id, c.title, c.slug, c.is_published,
	(SELECT COUNT(*) FROM comments cm WHERE cm.post_id = p.id) AS comment_count`

// pageParams reads the ?page= query parameter (1-based).
func pageParams(c *gin.Context) (page, limit, offset int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	return page, postsPerPage, (page - 1) * postsPerPage
}

// scanFeedRows scans rows produced with feedColumns. The category side
// may come from a LEFT JOIN (profile feeds list uncategorized posts),
// so those columns scan through nullable buffers.
func scanFeedRows(rows *sql.Rows) ([]*models.Post, error) {
	posts := []*models.Post{}
	for rows.Next() {
		var post models.Post
		var catID sql.NullInt64
		var catTitle, catSlug sql.NullString
		var catPublished sql.NullBool

		if err := rows.Scan(
			&post.ID, &post.Title, &post.Text, &post.PubDate, &post.IsPublished, &post.ImageURL,
			&post.AuthorID, &post.Author,
			&catID, &catTitle, &catSlug, &catPublished,
			&post.CommentCount,
		); err != nil {
			return nil, err
		}

		if catID.Valid {
			post.CategoryID = &catID.Int64
			post.Category = &models.Category{
				ID:          catID.Int64,
				Title:       catTitle.String,
				Slug:        catSlug.String,
				IsPublished: catPublished.Bool,
			}
		}

		posts = append(posts, &post)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return posts, nil
}

// GetFeed is the handler for GET /posts/, the global feed.
// Only live posts appear: published, past their publish date, and in a
// published category. Uncategorized posts never show up in feeds, the
// inner join takes care of that.
func (h *Handlers) GetFeed(c *gin.Context) {
	page, limit, offset := pageParams(c)

	query := `SELECT` + feedColumns + `
		FROM posts p
		JOIN users u ON u.id = p.author_id
		JOIN categories c ON c.id = p.category_id
		WHERE p.is_published = TRUE AND p.pub_date <= ? AND c.is_published = TRUE
		ORDER BY p.pub_date DESC
		LIMIT ? OFFSET ?`

	rows, err := h.DB.Query(query, time.Now(), limit, offset)
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

	c.JSON(http.StatusOK, gin.H{"posts": posts, "page": page})
}

// GetCategoryFeed is the handler for GET /posts/category/{slug}/.
// An absent or unpublished category is a plain 404.
func (h *Handlers) GetCategoryFeed(c *gin.Context) {
	categorySlug := c.Param("slug")

	var category models.Category
	err := h.DB.QueryRow(
		"SELECT id, title, description, slug, is_published, created_at FROM categories WHERE slug = ? AND is_published = TRUE",
		categorySlug,
	).Scan(&category.ID, &category.Title, &category.Description, &category.Slug, &category.IsPublished, &category.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	page, limit, offset := pageParams(c)

	query := `SELECT` + feedColumns + `
		FROM posts p
		JOIN users u ON u.id = p.author_id
		JOIN categories c ON c.id = p.category_id
		WHERE p.category_id = ? AND p.is_published = TRUE AND p.pub_date <= ? AND c.is_published = TRUE
		ORDER BY p.pub_date DESC
		LIMIT ? OFFSET ?`

	rows, err := h.DB.Query(query, category.ID, time.Now(), limit, offset)
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

	c.JSON(http.StatusOK, gin.H{"category": category, "posts": posts, "page": page})
}

// GetPost is the handler for GET /posts/{id}/.
// A post the viewer may not see answers exactly like a missing one.
func (h *Handlers) GetPost(c *gin.Context) {
	postID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	// LEFT JOIN: the detail view still resolves uncategorized posts.
	query := `
		SELECT p.id, p.title, p.text, p.pub_date, p.is_published, p.image_url,
			p.author_id, u.username,
			c.id, c.title, c.description, c.slug, c.is_published
		FROM posts p
		JOIN users u ON u.id = p.author_id
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.id = ?`

	var post models.Post
	var catID sql.NullInt64
	var catTitle, catDescription, catSlug sql.NullString
	var catPublished sql.NullBool

	err = h.DB.QueryRow(query, postID).Scan(
		&post.ID, &post.Title, &post.Text, &post.PubDate, &post.IsPublished, &post.ImageURL,
		&post.AuthorID, &post.Author,
		&catID, &catTitle, &catDescription, &catSlug, &catPublished,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if catID.Valid {
		post.CategoryID = &catID.Int64
		post.Category = &models.Category{
			ID:          catID.Int64,
			Title:       catTitle.String,
			Description: catDescription.String,
			Slug:        catSlug.String,
			IsPublished: catPublished.Bool,
		}
	}

	if !post.VisibleTo(currentUserID(c), time.Now()) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	comments, err := h.postComments(postID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load comments"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"post": post, "comments": comments})
}

// NewPost is the handler for GET /posts/create/. It hands the client
// everything the creation form needs (the published categories).
func (h *Handlers) NewPost(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}

	categories, err := h.listPublishedCategories()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// CreatePostInput deliberately has no author or isPublished field:
// the author is the acting user and is_published is server-defaulted.
type CreatePostInput struct {
	Title      string     `json:"title" binding:"required,max=255"`
	Text       string     `json:"text" binding:"required"`
	PubDate    *time.Time `json:"pubDate"`
	CategoryID *int64     `json:"categoryId"`
	ImageURL   *string    `json:"imageUrl"`
}

// CreatePost is the handler for POST /posts/create/.
func (h *Handlers) CreatePost(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var input CreatePostInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Posts may be future-dated; an omitted pub date means "now".
	pubDate := time.Now()
	if input.PubDate != nil {
		pubDate = *input.PubDate
	}

	if input.CategoryID != nil {
		var exists int
		err := h.DB.QueryRow("SELECT 1 FROM categories WHERE id = ?", *input.CategoryID).Scan(&exists)
		if err != nil {
			if err == sql.ErrNoRows {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid categoryId"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}
	}

	result, err := h.DB.Exec(
		`INSERT INTO posts (title, text, pub_date, author_id, category_id, image_url, is_published)
		 VALUES (?, ?, ?, ?, ?, ?, TRUE)`,
		input.Title, input.Text, pubDate, userID, input.CategoryID, input.ImageURL,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create post"})
		return
	}
	postID, _ := result.LastInsertId()

	// After a successful create the client lands on the author's profile.
	var username string
	if err := h.DB.QueryRow("SELECT username FROM users WHERE id = ?", userID).Scan(&username); err == nil {
		c.Header("Location", fmt.Sprintf("/users/%s/", username))
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Post created", "postId": postID})
}

// UpdatePostInput uses pointers so only submitted fields are touched.
type UpdatePostInput struct {
	Title      *string    `json:"title" binding:"omitempty,max=255"`
	Text       *string    `json:"text"`
	PubDate    *time.Time `json:"pubDate"`
	CategoryID *int64     `json:"categoryId"`
	ImageURL   *string    `json:"imageUrl"`
}

// EditPost is the handler for GET/POST /posts/{id}/edit/.
// Non-owners are bounced to the detail view instead of getting an
// error; only the owner ever sees the edit form.
func (h *Handlers) EditPost(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	postID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	var post models.Post
	err = h.DB.QueryRow(
		"SELECT id, title, text, pub_date, is_published, image_url, author_id, category_id FROM posts WHERE id = ?",
		postID,
	).Scan(&post.ID, &post.Title, &post.Text, &post.PubDate, &post.IsPublished, &post.ImageURL, &post.AuthorID, &post.CategoryID)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error checking ownership"})
		return
	}

	if !post.CanModify(userID) {
		c.Redirect(http.StatusSeeOther, fmt.Sprintf("/posts/%d/", postID))
		return
	}

	if c.Request.Method == http.MethodGet {
		c.JSON(http.StatusOK, gin.H{"post": post})
		return
	}

	var input UpdatePostInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.CategoryID != nil {
		var exists int
		err := h.DB.QueryRow("SELECT 1 FROM categories WHERE id = ?", *input.CategoryID).Scan(&exists)
		if err != nil {
			if err == sql.ErrNoRows {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid categoryId"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}
	}

	// --- Dynamically Build UPDATE Query ---
	var sets []string
	var args []interface{}

	if input.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *input.Title)
	}
	if input.Text != nil {
		sets = append(sets, "text = ?")
		args = append(args, *input.Text)
	}
	if input.PubDate != nil {
		sets = append(sets, "pub_date = ?")
		args = append(args, *input.PubDate)
	}
	if input.CategoryID != nil {
		sets = append(sets, "category_id = ?")
		args = append(args, *input.CategoryID)
	}
	if input.ImageURL != nil {
		sets = append(sets, "image_url = ?")
		args = append(args, *input.ImageURL)
	}

	if len(sets) == 0 {
		c.JSON(http.StatusOK, gin.H{"message": "Nothing to update"})
		return
	}

	args = append(args, postID)
	query := fmt.Sprintf("UPDATE posts SET %s WHERE id = ?", strings.Join(sets, ", "))

	if _, err := h.DB.Exec(query, args...); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update post"})
		return
	}

	c.Header("Location", fmt.Sprintf("/posts/%d/", postID))
	c.JSON(http.StatusOK, gin.H{"message": "Post updated"})
}

// DeletePost is the handler for GET/POST /posts/{id}/delete/.
// Unlike edit, a non-owner here gets a hard Forbidden. GET renders the
// confirmation payload; only POST deletes.
func (h *Handlers) DeletePost(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	postID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	var post models.Post
	err = h.DB.QueryRow(
		"SELECT id, title, text, pub_date, is_published, author_id FROM posts WHERE id = ?",
		postID,
	).Scan(&post.ID, &post.Title, &post.Text, &post.PubDate, &post.IsPublished, &post.AuthorID)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error checking ownership"})
		return
	}

	if !post.CanModify(userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You do not have permission to delete this post"})
		return
	}

	if c.Request.Method == http.MethodGet {
		c.JSON(http.StatusOK, gin.H{"post": post, "message": "Submit POST to confirm deletion"})
		return
	}

	// Comments go with the post (ON DELETE CASCADE).
	if _, err := h.DB.Exec("DELETE FROM posts WHERE id = ?", postID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete post"})
		return
	}

	c.Header("Location", "/posts/")
	c.JSON(http.StatusOK, gin.H{"message": "Post deleted"})
}
