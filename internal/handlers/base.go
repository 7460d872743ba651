package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"postly/internal/middleware"
	"postly/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// Services is everything the handlers need. Built once in main.
type Services struct {
	Posts    *services.PostService
	Queries  *services.PostQueryService
	Users    *services.UserService
	Follows  *services.FollowService
	Uploader *services.ImageUploader
	Hub      *services.Hub
}

// Render helper to inject common variables like 'current user'
func Render(c *gin.Context, code int, name string, obj gin.H) {
	if obj == nil {
		obj = gin.H{}
	}

	if user := middleware.CurrentUser(c); user != nil {
		obj["CurrentUser"] = user
	}

	session := sessions.Default(c)
	if flashes := session.Flashes(); len(flashes) > 0 {
		obj["Flashes"] = flashes
		session.Save()
	}

	obj["CurrentPath"] = c.Request.URL.Path
	c.HTML(code, name, obj)
}

// Error helper
func RenderError(c *gin.Context, code int, message string) {
	Render(c, code, "error.html", gin.H{"Error": message, "Code": code})
}

// RenderServiceError maps a service error onto a status page.
func RenderServiceError(c *gin.Context, err error) {
	code, message := statusFor(err)
	if code == http.StatusInternalServerError {
		log.Printf("[http] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	RenderError(c, code, message)
}

func statusFor(err error) (int, string) {
	var valErr *services.ValidationError
	switch {
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound, "Page not found"
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden, "Access denied"
	case errors.Is(err, services.ErrSelfFollow):
		return http.StatusBadRequest, "You cannot follow yourself"
	case errors.Is(err, services.ErrAlreadyExists):
		return http.StatusConflict, "There is already an account with this email"
	case errors.As(err, &valErr):
		return http.StatusBadRequest, valErr.Message
	}
	return http.StatusInternalServerError, "Something went wrong"
}

// Flash queues a one-shot message for the next rendered page.
func Flash(c *gin.Context, message string) {
	session := sessions.Default(c)
	session.AddFlash(message)
	session.Save()
}

// redirectBack follows the Referer when it points at this site.
func redirectBack(c *gin.Context, fallback string) {
	ref := c.Request.Referer()
	if ref == "" || !sameHost(ref, c.Request.Host) {
		ref = fallback
	}
	c.Redirect(http.StatusFound, ref)
}

func sameHost(ref, host string) bool {
	if strings.HasPrefix(ref, "/") && !strings.HasPrefix(ref, "//") {
		return true
	}
	for _, scheme := range []string{"http://", "https://"} {
		if strings.HasPrefix(ref, scheme+host+"/") || ref == scheme+host {
			return true
		}
	}
	return false
}

func wantsJSON(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "application/json")
}
