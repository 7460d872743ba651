package handlers

import (
	"errors"
	"log"
	"net/http"

	"postly/internal/middleware"
	"postly/internal/services"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	users *services.UserService
}

func NewAuthHandler(s *Services) *AuthHandler {
	return &AuthHandler{users: s.Users}
}

func (h *AuthHandler) ShowRegister(c *gin.Context) {
	if middleware.CurrentUser(c) != nil {
		c.Redirect(http.StatusFound, "/")
		return
	}
	Render(c, http.StatusOK, "auth/register.html", nil)
}

func (h *AuthHandler) Register(c *gin.Context) {
	name := c.PostForm("name")
	email := c.PostForm("email")
	password := c.PostForm("password")
	form := gin.H{"Name": name, "Email": email}

	if password != c.PostForm("password_confirm") {
		form["Error"] = "The password fields must match"
		Render(c, http.StatusBadRequest, "auth/register.html", form)
		return
	}

	user, err := h.users.Register(c.Request.Context(), name, email, password)
	if err != nil {
		code, message := statusFor(err)
		if code == http.StatusInternalServerError {
			log.Printf("[auth] register failed: %v", err)
		}
		form["Error"] = message
		Render(c, code, "auth/register.html", form)
		return
	}

	if err := middleware.Login(c, user); err != nil {
		log.Printf("[auth] session save failed: %v", err)
	}
	c.Redirect(http.StatusFound, "/")
}

func (h *AuthHandler) ShowLogin(c *gin.Context) {
	if middleware.CurrentUser(c) != nil {
		c.Redirect(http.StatusFound, "/")
		return
	}
	Render(c, http.StatusOK, "auth/login.html", nil)
}

func (h *AuthHandler) Login(c *gin.Context) {
	email := c.PostForm("email")
	password := c.PostForm("password")

	user, err := h.users.Authenticate(c.Request.Context(), email, password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		Render(c, http.StatusUnauthorized, "auth/login.html", gin.H{"Error": "Invalid credentials.", "Email": email})
		return
	}
	if err != nil {
		RenderServiceError(c, err)
		return
	}

	if err := middleware.Login(c, user); err != nil {
		RenderServiceError(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/")
}

func (h *AuthHandler) Logout(c *gin.Context) {
	middleware.Logout(c)
	c.Redirect(http.StatusFound, "/")
}
