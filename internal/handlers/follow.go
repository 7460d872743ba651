package handlers

import (
	"fmt"
	"net/http"

	"postly/internal/middleware"
	"postly/internal/services"
	"postly/internal/utils"

	"github.com/gin-gonic/gin"
)

type FollowHandler struct {
	follows *services.FollowService
}

func NewFollowHandler(s *Services) *FollowHandler {
	return &FollowHandler{follows: s.Follows}
}

// Toggle follows or unfollows the user and goes back to where the click came from.
func (h *FollowHandler) Toggle(c *gin.Context) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		RenderError(c, http.StatusNotFound, "Page not found")
		return
	}
	following, err := h.follows.Toggle(c.Request.Context(), middleware.CurrentUser(c).ID, id)
	if err != nil {
		if wantsJSON(c) {
			code, message := statusFor(err)
			c.JSON(code, gin.H{"status": "error", "error": message})
			return
		}
		RenderServiceError(c, err)
		return
	}
	if wantsJSON(c) {
		c.JSON(http.StatusOK, gin.H{"following": following})
		return
	}
	redirectBack(c, fmt.Sprintf("/user/%d/posts", id))
}
