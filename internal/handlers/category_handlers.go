package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gosimple/slug"
	"github.com/tmarkova/blogview/internal/models"
)

// CreateCategoryInput defines the JSON input for creating a category.
type CreateCategoryInput struct {
	Title       string `json:"title" binding:"required,max=255"`
	Description string `json:"description"`
	IsPublished *bool  `json:"isPublished"`
}

// CreateCategory is the handler for POST /categories/ (staff only).
func (h *Handlers) CreateCategory(c *gin.Context) {
	var input CreateCategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category := &models.Category{
		Title:       input.Title,
		Description: input.Description,
		Slug:        slug.Make(input.Title), // Generate slug from title
		IsPublished: true,
		CreatedAt:   time.Now(),
	}
	if input.IsPublished != nil {
		category.IsPublished = *input.IsPublished
	}

	result, err := h.DB.Exec(
		"INSERT INTO categories (title, description, slug, is_published, created_at) VALUES (?, ?, ?, ?, ?)",
		category.Title, category.Description, category.Slug, category.IsPublished, category.CreatedAt,
	)
	if err != nil {
		if isDuplicateEntry(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "A category with this slug already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create category"})
		return
	}
	category.ID, _ = result.LastInsertId()

	c.JSON(http.StatusCreated, gin.H{"message": "Category created", "category": category})
}

// listPublishedCategories is shared by the public listing and the
// post-creation form payload.
func (h *Handlers) listPublishedCategories() ([]models.Category, error) {
	rows, err := h.DB.Query(
		"SELECT id, title, description, slug, is_published, created_at FROM categories WHERE is_published = TRUE ORDER BY title ASC",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		var cat models.Category
		if err := rows.Scan(&cat.ID, &cat.Title, &cat.Description, &cat.Slug, &cat.IsPublished, &cat.CreatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, cat)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return categories, nil
}

// GetAllCategories is the handler for GET /categories/.
// Unpublished categories stay hidden from everyone but the admin
// surface; they still exist so their posts are hidden, not orphaned.
func (h *Handlers) GetAllCategories(c *gin.Context) {
	categories, err := h.listPublishedCategories()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories})
}
