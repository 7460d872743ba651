package handlers

import (
	"fmt"
	"net/http"

	"postly/internal/middleware"
	"postly/internal/services"
	"postly/internal/utils"

	"github.com/gin-gonic/gin"
)

type LikeHandler struct {
	posts   *services.PostService
	queries *services.PostQueryService
}

func NewLikeHandler(s *Services) *LikeHandler {
	return &LikeHandler{posts: s.Posts, queries: s.Queries}
}

func (h *LikeHandler) Like(c *gin.Context) {
	h.set(c, func(userID, postID uint) error {
		return h.posts.SetLike(c.Request.Context(), userID, postID, true)
	})
}

func (h *LikeHandler) Unlike(c *gin.Context) {
	h.set(c, func(userID, postID uint) error {
		return h.posts.SetLike(c.Request.Context(), userID, postID, false)
	})
}

func (h *LikeHandler) Dislike(c *gin.Context) {
	h.set(c, func(userID, postID uint) error {
		return h.posts.SetDislike(c.Request.Context(), userID, postID, true)
	})
}

func (h *LikeHandler) Undislike(c *gin.Context) {
	h.set(c, func(userID, postID uint) error {
		return h.posts.SetDislike(c.Request.Context(), userID, postID, false)
	})
}

func (h *LikeHandler) ToggleLike(c *gin.Context) {
	h.set(c, func(userID, postID uint) error {
		_, err := h.posts.ToggleLike(c.Request.Context(), userID, postID)
		return err
	})
}

func (h *LikeHandler) ToggleDislike(c *gin.Context) {
	h.set(c, func(userID, postID uint) error {
		_, err := h.posts.ToggleDislike(c.Request.Context(), userID, postID)
		return err
	})
}

// set runs one edge change and answers with the post's new like state.
func (h *LikeHandler) set(c *gin.Context, change func(userID, postID uint) error) {
	postID, ok := utils.ParseID(c.Param("id"))
	if !ok {
		h.fail(c, services.ErrNotFound)
		return
	}
	user := middleware.CurrentUser(c)
	if err := change(user.ID, postID); err != nil {
		h.fail(c, err)
		return
	}

	if !wantsJSON(c) {
		redirectBack(c, fmt.Sprintf("/post/%d", postID))
		return
	}

	ctx := c.Request.Context()
	counts, err := h.posts.Counts(ctx, postID)
	if err != nil {
		h.fail(c, err)
		return
	}
	liked, err := h.queries.IsLiked(ctx, &user.ID, postID)
	if err != nil {
		h.fail(c, err)
		return
	}
	disliked, err := h.queries.IsDisliked(ctx, &user.ID, postID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"liked":    liked,
		"disliked": disliked,
		"likes":    counts.Likes,
		"dislikes": counts.Dislikes,
	})
}

func (h *LikeHandler) fail(c *gin.Context, err error) {
	if wantsJSON(c) {
		code, message := statusFor(err)
		c.JSON(code, gin.H{"status": "error", "error": message})
		return
	}
	RenderServiceError(c, err)
}
