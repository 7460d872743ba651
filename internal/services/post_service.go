package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"postly/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostListener is told about posts after they are committed.
type PostListener interface {
	PostCreated(post *models.Post)
}

type PostService struct {
	db       *gorm.DB
	policy   PostPolicy
	listener PostListener
}

// NewPostService builds the write side for posts. listener may be nil.
func NewPostService(db *gorm.DB, listener PostListener) *PostService {
	return &PostService{db: db, listener: listener}
}

// ValidatePost checks the title and content bounds.
func ValidatePost(title, content string) error {
	if title == "" {
		return NewValidationError("title", "Title cannot be blank")
	}
	if utf8.RuneCountInString(title) > models.PostTitleMaxLen {
		return NewValidationError("title", "Title cannot be longer than 100 characters")
	}
	if content == "" {
		return NewValidationError("content", "Content cannot be blank")
	}
	if utf8.RuneCountInString(content) > models.PostContentMaxLen {
		return NewValidationError("content", "Content cannot be longer than 3000 characters")
	}
	return nil
}

func (s *PostService) Create(ctx context.Context, author *models.User, title, content string) (*models.Post, error) {
	if author == nil || author.ID == 0 {
		return nil, ErrForbidden
	}
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if err := ValidatePost(title, content); err != nil {
		return nil, err
	}

	post := &models.Post{
		Title:     title,
		Content:   content,
		UserID:    author.ID,
		CreatedAt: time.Now(),
	}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error; err != nil {
		return nil, storeErr("create post", err)
	}
	post.User = *author

	if s.listener != nil {
		s.listener.PostCreated(post)
	}
	log.Printf("[post] user %d created post %d", author.ID, post.ID)
	return post, nil
}

// Get loads a post with its author.
func (s *PostService) Get(ctx context.Context, postID uint) (*models.Post, error) {
	var post models.Post
	err := s.db.WithContext(ctx).Preload("User").Preload("User.Image").First(&post, postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storeErr("get post", err)
	}
	return &post, nil
}

func (s *PostService) Update(ctx context.Context, actor *models.User, postID uint, title, content string) (*models.Post, error) {
	post, err := s.Get(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !s.policy.Allows(actor, PermEdit, post) {
		return nil, ErrForbidden
	}

	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if err := ValidatePost(title, content); err != nil {
		return nil, err
	}

	now := time.Now()
	err = s.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", post.ID).Updates(map[string]interface{}{
		"title":      title,
		"content":    content,
		"updated_at": now,
	}).Error
	if err != nil {
		return nil, storeErr("update post", err)
	}

	post.Title = title
	post.Content = content
	post.UpdatedAt = &now
	return post, nil
}

// Delete removes the post's like and dislike edges, then the post.
func (s *PostService) Delete(ctx context.Context, actor *models.User, postID uint) error {
	post, err := s.Get(ctx, postID)
	if err != nil {
		return err
	}
	if !s.policy.Allows(actor, PermDelete, post) {
		return ErrForbidden
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.PostLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.PostDislike{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Post{}, post.ID).Error
	})
	if err != nil {
		return storeErr("delete post", err)
	}
	log.Printf("[post] user %d deleted post %d", actor.ID, post.ID)
	return nil
}

// PostCounts are the like and dislike totals of one post.
type PostCounts struct {
	Likes    int64
	Dislikes int64
}

func (s *PostService) Counts(ctx context.Context, postID uint) (PostCounts, error) {
	var c PostCounts
	if err := s.db.WithContext(ctx).Model(&models.PostLike{}).Where("post_id = ?", postID).Count(&c.Likes).Error; err != nil {
		return c, storeErr("count likes", err)
	}
	if err := s.db.WithContext(ctx).Model(&models.PostDislike{}).Where("post_id = ?", postID).Count(&c.Dislikes).Error; err != nil {
		return c, storeErr("count dislikes", err)
	}
	return c, nil
}

// SetLike makes the like edge present (on) or absent (!on). Repeating a call is a no-op.
func (s *PostService) SetLike(ctx context.Context, userID, postID uint, on bool) error {
	return s.setEdge(ctx, &models.PostLike{UserID: userID, PostID: postID}, on)
}

func (s *PostService) SetDislike(ctx context.Context, userID, postID uint, on bool) error {
	return s.setEdge(ctx, &models.PostDislike{UserID: userID, PostID: postID}, on)
}

// ToggleLike flips the like edge and returns whether it is now present.
func (s *PostService) ToggleLike(ctx context.Context, userID, postID uint) (bool, error) {
	return s.toggleEdge(ctx, &models.PostLike{UserID: userID, PostID: postID})
}

func (s *PostService) ToggleDislike(ctx context.Context, userID, postID uint) (bool, error) {
	return s.toggleEdge(ctx, &models.PostDislike{UserID: userID, PostID: postID})
}

func (s *PostService) ensurePost(tx *gorm.DB, postID uint) error {
	var count int64
	if err := tx.Model(&models.Post{}).Where("id = ?", postID).Count(&count).Error; err != nil {
		return storeErr("find post", err)
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}

// edge is *models.PostLike or *models.PostDislike.
func (s *PostService) setEdge(ctx context.Context, edge interface{}, on bool) error {
	userID, postID := edgeKey(edge)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.ensurePost(tx, postID); err != nil {
			return err
		}
		if on {
			err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{DoNothing: true}).Create(edge).Error
			return storeErr("insert edge", err)
		}
		err := tx.Where("user_id = ? AND post_id = ?", userID, postID).Delete(edge).Error
		return storeErr("delete edge", err)
	})
}

func (s *PostService) toggleEdge(ctx context.Context, edge interface{}) (bool, error) {
	userID, postID := edgeKey(edge)
	var present bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.ensurePost(tx, postID); err != nil {
			return err
		}
		var count int64
		if err := tx.Model(edge).Where("user_id = ? AND post_id = ?", userID, postID).Count(&count).Error; err != nil {
			return storeErr("find edge", err)
		}
		if count > 0 {
			present = false
			return storeErr("delete edge", tx.Where("user_id = ? AND post_id = ?", userID, postID).Delete(edge).Error)
		}
		present = true
		return storeErr("insert edge", tx.Omit(clause.Associations).Clauses(clause.OnConflict{DoNothing: true}).Create(edge).Error)
	})
	if err != nil {
		return false, err
	}
	return present, nil
}

func edgeKey(edge interface{}) (userID, postID uint) {
	switch e := edge.(type) {
	case *models.PostLike:
		return e.UserID, e.PostID
	case *models.PostDislike:
		return e.UserID, e.PostID
	}
	return 0, 0
}
