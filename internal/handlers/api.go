package handlers

import (
	"log"
	"net/http"

	"postly/internal/middleware"
	"postly/internal/services"

	"github.com/gin-gonic/gin"
)

type APIHandler struct {
	users *services.UserService
	posts *services.PostService
}

func NewAPIHandler(s *Services) *APIHandler {
	return &APIHandler{users: s.Users, posts: s.Posts}
}

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type newPostRequest struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content" binding:"required"`
}

// apiError maps a service error onto a status and a client-safe message.
// Unexpected failures are logged and never echoed back.
func apiError(c *gin.Context, err error) (int, string) {
	code, message := statusFor(err)
	if code == http.StatusInternalServerError {
		log.Printf("[api] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	return code, message
}

// Register creates an account from a JSON body.
func (h *APIHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User not registered!", "message": "data not valid"})
		return
	}
	if _, err := h.users.Register(c.Request.Context(), req.Name, req.Email, req.Password); err != nil {
		code, message := apiError(c, err)
		c.JSON(code, gin.H{"error": "User not registered!", "message": message})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User registered!"})
}

// CreatePost publishes a post for the logged in user.
func (h *APIHandler) CreatePost(c *gin.Context) {
	var req newPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Post not added", "message": "data not valid"})
		return
	}
	post, err := h.posts.Create(c.Request.Context(), middleware.CurrentUser(c), req.Title, req.Content)
	if err != nil {
		code, message := apiError(c, err)
		c.JSON(code, gin.H{"status": "error", "error": "Post not added", "message": message})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Post created successfully", "id": post.ID})
}
