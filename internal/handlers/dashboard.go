package handlers

import (
	"errors"
	"log"
	"net/http"

	"postly/internal/middleware"
	"postly/internal/services"

	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	users    *services.UserService
	queries  *services.PostQueryService
	follows  *services.FollowService
	uploader *services.ImageUploader
}

func NewDashboardHandler(s *Services) *DashboardHandler {
	return &DashboardHandler{
		users:    s.Users,
		queries:  s.Queries,
		follows:  s.Follows,
		uploader: s.Uploader,
	}
}

func (h *DashboardHandler) Index(c *gin.Context) {
	user := middleware.CurrentUser(c)
	ctx := c.Request.Context()

	page, err := h.queries.ListUserPosts(ctx, 1, user.ID)
	if err != nil {
		RenderServiceError(c, err)
		return
	}
	counts, err := h.follows.Counts(ctx, user.ID)
	if err != nil {
		RenderServiceError(c, err)
		return
	}
	Render(c, http.StatusOK, "dashboard/index.html", gin.H{
		"Page":         page,
		"FollowCounts": counts,
	})
}

func (h *DashboardHandler) Profile(c *gin.Context) {
	Render(c, http.StatusOK, "dashboard/profile.html", nil)
}

// renderProfile re-renders the profile page with an error against one form.
func (h *DashboardHandler) renderProfile(c *gin.Context, form string, err error) {
	code, message := statusFor(err)
	if code == http.StatusInternalServerError {
		RenderServiceError(c, err)
		return
	}
	Render(c, code, "dashboard/profile.html", gin.H{
		"Form":  form,
		"Error": message,
	})
}

func (h *DashboardHandler) UpdateImage(c *gin.Context) {
	user := middleware.CurrentUser(c)

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		h.renderProfile(c, "image", services.NewValidationError("image", "Please choose an image"))
		return
	}
	defer file.Close()

	name, err := h.uploader.UploadAvatar(file, header)
	if err != nil {
		h.renderProfile(c, "image", err)
		return
	}

	old, err := h.users.SetAvatar(c.Request.Context(), user.ID, name)
	if err != nil {
		h.uploader.Remove(name)
		RenderServiceError(c, err)
		return
	}
	if err := h.uploader.Remove(old); err != nil {
		log.Printf("[dashboard] cannot remove old avatar %s: %v", old, err)
	}

	Flash(c, "Profile image updated.")
	c.Redirect(http.StatusFound, "/dashboard")
}

func (h *DashboardHandler) UpdateInfo(c *gin.Context) {
	user := middleware.CurrentUser(c)
	_, err := h.users.UpdateProfile(c.Request.Context(), user.ID, c.PostForm("name"), c.PostForm("email"))
	if err != nil {
		h.renderProfile(c, "info", err)
		return
	}
	Flash(c, "Profile information updated.")
	c.Redirect(http.StatusFound, "/dashboard/profile")
}

func (h *DashboardHandler) UpdatePassword(c *gin.Context) {
	user := middleware.CurrentUser(c)
	next := c.PostForm("new_password")
	if next != c.PostForm("new_password_confirm") {
		h.renderProfile(c, "password", services.NewValidationError("new_password", "The password fields must match"))
		return
	}
	if err := h.users.ChangePassword(c.Request.Context(), user.ID, c.PostForm("current_password"), next); err != nil {
		h.renderProfile(c, "password", err)
		return
	}
	Flash(c, "Password changed.")
	c.Redirect(http.StatusFound, "/dashboard/profile")
}

// DeleteAccount needs the current password, then logs the user out.
func (h *DashboardHandler) DeleteAccount(c *gin.Context) {
	user := middleware.CurrentUser(c)
	ctx := c.Request.Context()

	if _, err := h.users.Authenticate(ctx, user.Email, c.PostForm("password")); err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			err = services.NewValidationError("password", "Password is incorrect")
		}
		h.renderProfile(c, "delete", err)
		return
	}

	avatar, err := h.users.DeleteAccount(ctx, user.ID)
	if err != nil {
		RenderServiceError(c, err)
		return
	}
	if err := h.uploader.Remove(avatar); err != nil {
		log.Printf("[dashboard] cannot remove avatar %s: %v", avatar, err)
	}

	middleware.Logout(c)
	c.Redirect(http.StatusFound, "/")
}
