package services

import "postly/internal/models"

type Permission string

const (
	PermEdit   Permission = "POST_EDIT"
	PermView   Permission = "POST_VIEW"
	PermDelete Permission = "POST_DELETE"
)

// PostPolicy decides post-level permissions. It never errors; callers turn
// a false into a 403.
type PostPolicy struct{}

// Allows resolves perm for actor on post. A nil actor is anonymous and is denied everything.
func (p PostPolicy) Allows(actor *models.User, perm Permission, post *models.Post) bool {
	if actor == nil || post == nil {
		return false
	}
	switch perm {
	case PermEdit:
		return p.CanEdit(post, actor)
	case PermView:
		return p.CanView(post, actor)
	case PermDelete:
		return p.CanDelete(post, actor)
	}
	return false
}

// CanEdit is the owner-only rule.
func (PostPolicy) CanEdit(post *models.Post, actor *models.User) bool {
	if actor == nil || post == nil || actor.ID == 0 {
		return false
	}
	return actor.ID == post.UserID
}

// CanView is owner-only. Public post pages do not consult it.
func (p PostPolicy) CanView(post *models.Post, actor *models.User) bool {
	return p.CanEdit(post, actor)
}

func (p PostPolicy) CanDelete(post *models.Post, actor *models.User) bool {
	return p.CanEdit(post, actor)
}
