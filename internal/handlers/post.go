package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"postly/internal/middleware"
	"postly/internal/models"
	"postly/internal/services"
	"postly/internal/utils"

	"github.com/gin-gonic/gin"
)

type PostHandler struct {
	posts   *services.PostService
	queries *services.PostQueryService
	users   *services.UserService
	follows *services.FollowService
	policy  services.PostPolicy
}

func NewPostHandler(s *Services) *PostHandler {
	return &PostHandler{
		posts:   s.Posts,
		queries: s.Queries,
		users:   s.Users,
		follows: s.Follows,
	}
}

// Index lists every post, most liked first.
func (h *PostHandler) Index(c *gin.Context) {
	page, err := h.queries.ListAllPosts(c.Request.Context(), utils.ParsePage(c.Query("page")))
	if err != nil {
		RenderServiceError(c, err)
		return
	}
	Render(c, http.StatusOK, "posts/index.html", gin.H{
		"Page":     page,
		"BasePath": "/",
	})
}

// UserPosts lists one author's posts.
func (h *PostHandler) UserPosts(c *gin.Context) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		RenderError(c, http.StatusNotFound, "Page not found")
		return
	}
	author, err := h.users.Get(c.Request.Context(), id)
	if err != nil {
		RenderServiceError(c, err)
		return
	}
	page, err := h.queries.ListUserPosts(c.Request.Context(), utils.ParsePage(c.Query("page")), id)
	if err != nil {
		RenderServiceError(c, err)
		return
	}
	Render(c, http.StatusOK, "posts/index.html", gin.H{
		"Page":     page,
		"Author":   author,
		"BasePath": fmt.Sprintf("/user/%d/posts", id),
	})
}

func (h *PostHandler) Show(c *gin.Context) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		RenderError(c, http.StatusNotFound, "Page not found")
		return
	}
	ctx := c.Request.Context()
	post, err := h.posts.Get(ctx, id)
	if err != nil {
		RenderServiceError(c, err)
		return
	}

	viewer := middleware.CurrentUserID(c)
	counts, err := h.posts.Counts(ctx, post.ID)
	if err != nil {
		RenderServiceError(c, err)
		return
	}
	isLiked, err := h.queries.IsLiked(ctx, viewer, post.ID)
	if err != nil {
		RenderServiceError(c, err)
		return
	}
	isDisliked, err := h.queries.IsDisliked(ctx, viewer, post.ID)
	if err != nil {
		RenderServiceError(c, err)
		return
	}
	isFollowing, err := h.follows.IsFollowing(ctx, viewer, post.UserID)
	if err != nil {
		RenderServiceError(c, err)
		return
	}
	followCounts, err := h.follows.Counts(ctx, post.UserID)
	if err != nil {
		RenderServiceError(c, err)
		return
	}

	actor := middleware.CurrentUser(c)
	Render(c, http.StatusOK, "posts/show.html", gin.H{
		"Post":         post,
		"Content":      utils.RenderMarkdown(post.Content),
		"Counts":       counts,
		"IsLiked":      isLiked,
		"IsDisliked":   isDisliked,
		"IsFollowing":  isFollowing,
		"FollowCounts": followCounts,
		"IsOwner":      actor != nil && actor.ID == post.UserID,
		"CanEdit":      h.policy.Allows(actor, services.PermEdit, post),
		"CanDelete":    h.policy.Allows(actor, services.PermDelete, post),
	})
}

func (h *PostHandler) ShowCreate(c *gin.Context) {
	Render(c, http.StatusOK, "posts/form.html", gin.H{"Action": "/post/new"})
}

func (h *PostHandler) Create(c *gin.Context) {
	title := c.PostForm("title")
	content := c.PostForm("content")

	post, err := h.posts.Create(c.Request.Context(), middleware.CurrentUser(c), title, content)
	if err != nil {
		h.renderFormError(c, err, "/post/new", title, content)
		return
	}
	Flash(c, fmt.Sprintf("Post \"%s\" published.", post.Title))
	c.Redirect(http.StatusFound, "/")
}

// ShowEdit is only for the owner. A post the actor cannot view answers 403.
func (h *PostHandler) ShowEdit(c *gin.Context) {
	post, ok := h.loadPost(c)
	if !ok {
		return
	}
	actor := middleware.CurrentUser(c)
	if !h.policy.Allows(actor, services.PermView, post) || !h.policy.Allows(actor, services.PermEdit, post) {
		RenderError(c, http.StatusForbidden, "Access denied")
		return
	}
	Render(c, http.StatusOK, "posts/form.html", gin.H{
		"Action":  fmt.Sprintf("/post/edit/%d", post.ID),
		"Post":    post,
		"Title":   post.Title,
		"Content": post.Content,
	})
}

func (h *PostHandler) Update(c *gin.Context) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		RenderError(c, http.StatusNotFound, "Page not found")
		return
	}
	title := c.PostForm("title")
	content := c.PostForm("content")

	post, err := h.posts.Update(c.Request.Context(), middleware.CurrentUser(c), id, title, content)
	if err != nil {
		h.renderFormError(c, err, fmt.Sprintf("/post/edit/%d", id), title, content)
		return
	}
	Flash(c, "Post updated.")
	c.Redirect(http.StatusFound, fmt.Sprintf("/post/%d", post.ID))
}

func (h *PostHandler) Delete(c *gin.Context) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		RenderError(c, http.StatusNotFound, "Page not found")
		return
	}
	if err := h.posts.Delete(c.Request.Context(), middleware.CurrentUser(c), id); err != nil {
		RenderServiceError(c, err)
		return
	}
	Flash(c, "Post deleted.")
	c.Redirect(http.StatusFound, "/")
}

// Search renders matching titles. Browsers asking for JSON get the bare list.
func (h *PostHandler) Search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	results, err := h.queries.SearchPosts(c.Request.Context(), q)
	if err != nil {
		if wantsJSON(c) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
			return
		}
		RenderServiceError(c, err)
		return
	}
	if wantsJSON(c) {
		c.JSON(http.StatusOK, results)
		return
	}
	Render(c, http.StatusOK, "posts/search.html", gin.H{
		"Query":   q,
		"Results": results,
	})
}

func (h *PostHandler) loadPost(c *gin.Context) (*models.Post, bool) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		RenderError(c, http.StatusNotFound, "Page not found")
		return nil, false
	}
	post, err := h.posts.Get(c.Request.Context(), id)
	if err != nil {
		RenderServiceError(c, err)
		return nil, false
	}
	return post, true
}

func (h *PostHandler) renderFormError(c *gin.Context, err error, action, title, content string) {
	var valErr *services.ValidationError
	if !errors.As(err, &valErr) {
		RenderServiceError(c, err)
		return
	}
	Render(c, http.StatusBadRequest, "posts/form.html", gin.H{
		"Action":  action,
		"Title":   title,
		"Content": content,
		"Error":   valErr.Message,
		"Field":   valErr.Field,
	})
}
