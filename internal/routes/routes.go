package routes

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/tmarkova/blogview/internal/handlers"
	"github.com/tmarkova/blogview/internal/middleware"
)

// CORSMiddleware tells the browser that the frontend origin is allowed
// to send data to us.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Strictly allow ONLY the configured frontend
		origin := os.Getenv("FRONTEND_ORIGIN")
		if origin == "" {
			origin = "http://localhost:5173"
		}
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)

		// 2. Allow standard security credentials
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")

		// 3. Allow the headers we actually use ("Authorization" for tokens)
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")

		// 4. Allow the HTTP methods we use
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		// 5. Handle the "Preflight" OPTIONS request
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

func SetupRouter(h *handlers.Handlers) *gin.Engine {
	router := gin.Default()

	router.Use(CORSMiddleware())

	// Uploaded post images are served statically.
	router.Static("/uploads", "./uploads")

	// --- Auth Routes (Public) ---
	router.POST("/register", h.Register)
	router.POST("/login", h.Login)
	router.GET("/login", h.LoginPage)

	// --- Upload (Login Required) ---
	router.POST("/upload", middleware.AuthRequired(), h.UploadImage)

	// --- Category Routes ---
	categories := router.Group("/categories")
	{
		categories.GET("/", h.GetAllCategories)
		categories.POST("/", middleware.AuthRequired(), middleware.StaffRequired(h.DB), h.CreateCategory)
	}

	// --- Post Routes ---
	// gin's tree cannot register a static segment ("create", "category")
	// next to a wildcard (":id") at the same level, so the literal
	// segments under /posts are dispatched here. Everything runs behind
	// the optional-auth middleware: the detail view needs the viewer's
	// identity, and the mutation handlers enforce login themselves.
	posts := router.Group("/posts")
	posts.Use(middleware.OptionalAuth())
	{
		posts.GET("/", h.GetFeed)

		posts.GET("/:id/", func(c *gin.Context) {
			if c.Param("id") == "create" {
				h.NewPost(c)
				return
			}
			h.GetPost(c)
		})
		posts.POST("/:id/", func(c *gin.Context) {
			if c.Param("id") == "create" {
				h.CreatePost(c)
				return
			}
			c.JSON(http.StatusNotFound, gin.H{"error": "Page not found"})
		})

		postAction := func(c *gin.Context) {
			if c.Param("id") == "category" {
				// /posts/category/{slug}/: the slug rides in the
				// :action position.
				c.Params = append(c.Params, gin.Param{Key: "slug", Value: c.Param("action")})
				h.GetCategoryFeed(c)
				return
			}
			switch c.Param("action") {
			case "edit":
				h.EditPost(c)
			case "delete":
				h.DeletePost(c)
			default:
				c.JSON(http.StatusNotFound, gin.H{"error": "Page not found"})
			}
		}
		posts.GET("/:id/:action/", postAction)
		posts.POST("/:id/:action/", postAction)
	}

	// --- Comment Routes (Login Required) ---
	comments := router.Group("/comments")
	comments.Use(middleware.AuthRequired())
	{
		comments.POST("/:post_id/add/", h.AddComment)
		comments.GET("/:post_id/edit/:comment_id/", h.EditComment)
		comments.POST("/:post_id/edit/:comment_id/", h.EditComment)
		comments.GET("/:post_id/delete/:comment_id/", h.DeleteComment)
		comments.POST("/:post_id/delete/:comment_id/", h.DeleteComment)
	}

	// --- User Routes ---
	users := router.Group("/users")
	{
		users.GET("/:username/", h.GetProfile)
		users.GET("/:username/edit/", middleware.AuthRequired(), h.UpdateProfile)
		users.POST("/:username/edit/", middleware.AuthRequired(), h.UpdateProfile)
	}

	return router
}
