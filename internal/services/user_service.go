package services

import (
	"context"
	"errors"
	"log"
	"net/mail"
	"strings"
	"unicode"
	"unicode/utf8"

	"postly/internal/models"
	"postly/internal/utils"

	"gorm.io/gorm"
)

const (
	minPasswordLen = 6
	maxNameLen     = 255
)

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

func validateEmail(email string) error {
	if email == "" {
		return NewValidationError("email", "Email cannot be blank")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return NewValidationError("email", "the email "+email+" is not a valid email")
	}
	return nil
}

// validateName rejects blank names and control characters. Names end up in
// mail headers, so CR and LF must never get through.
func validateName(name string) error {
	if name == "" {
		return NewValidationError("name", "Name cannot be blank")
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return NewValidationError("name", "Name is too long")
	}
	if strings.IndexFunc(name, unicode.IsControl) >= 0 {
		return NewValidationError("name", "Name contains invalid characters")
	}
	return nil
}

// normalizeEmail is applied on every write and lookup so addresses compare
// case-insensitively.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validatePassword(password string) error {
	if len(password) < minPasswordLen {
		return NewValidationError("password", "Password must be at least 6 characters")
	}
	return nil
}

func (s *UserService) emailTaken(ctx context.Context, email string, exceptID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("LOWER(email) = ? AND id <> ?", email, exceptID).
		Count(&count).Error
	if err != nil {
		return false, storeErr("check email", err)
	}
	return count > 0, nil
}

func (s *UserService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	taken, err := s.emailTaken(ctx, email, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrAlreadyExists
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Name:     name,
		Email:    email,
		Password: hash,
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyExists
		}
		return nil, storeErr("create user", err)
	}
	log.Printf("[user] registered user %d", user.ID)
	return user, nil
}

func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, storeErr("find user", err)
	}
	if !utils.CheckPasswordHash(password, user.Password) {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

func (s *UserService) Get(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Preload("Image").First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storeErr("get user", err)
	}
	return &user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID uint, name, email string) (*models.User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	taken, err := s.emailTaken(ctx, email, userID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrAlreadyExists
	}

	err = s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"name":  name,
		"email": email,
	}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, ErrAlreadyExists
	}
	if err != nil {
		return nil, storeErr("update user", err)
	}
	user.Name = name
	user.Email = email
	return user, nil
}

func (s *UserService) ChangePassword(ctx context.Context, userID uint, current, next string) error {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	if !utils.CheckPasswordHash(current, user.Password) {
		return NewValidationError("current_password", "Current password is incorrect")
	}
	if err := validatePassword(next); err != nil {
		return err
	}
	hash, err := utils.HashPassword(next)
	if err != nil {
		return err
	}
	return storeErr("update password", s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).Update("password", hash).Error)
}

// SetAvatar points the user at a new avatar file and drops the old Image row.
// It returns the old file name (or "") so the caller can remove the file.
func (s *UserService) SetAvatar(ctx context.Context, userID uint, path string) (string, error) {
	var oldPath string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Preload("Image").First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return storeErr("get user", err)
		}

		image := &models.Image{Path: path}
		if err := tx.Create(image).Error; err != nil {
			return storeErr("create image", err)
		}
		if err := tx.Model(&models.User{}).Where("id = ?", userID).Update("image_id", image.ID).Error; err != nil {
			return storeErr("set avatar", err)
		}
		if user.Image != nil {
			oldPath = user.Image.Path
			if err := tx.Delete(&models.Image{}, user.Image.ID).Error; err != nil {
				return storeErr("delete image", err)
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return oldPath, nil
}

// DeleteAccount removes the user and everything that hangs off them, in order:
// follow edges, the user's like/dislike edges, edges on the user's posts,
// the posts, the user row and finally the avatar row.
// It returns the avatar file name (or "") for the caller to remove.
func (s *UserService) DeleteAccount(ctx context.Context, userID uint) (string, error) {
	var avatar string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Preload("Image").First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return storeErr("get user", err)
		}

		if err := tx.Where("follower_id = ? OR followee_id = ?", userID, userID).Delete(&models.Follow{}).Error; err != nil {
			return storeErr("delete follows", err)
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.PostLike{}).Error; err != nil {
			return storeErr("delete likes", err)
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.PostDislike{}).Error; err != nil {
			return storeErr("delete dislikes", err)
		}

		owned := tx.Model(&models.Post{}).Select("id").Where("user_id = ?", userID)
		if err := tx.Where("post_id IN (?)", owned).Delete(&models.PostLike{}).Error; err != nil {
			return storeErr("delete post likes", err)
		}
		if err := tx.Where("post_id IN (?)", owned).Delete(&models.PostDislike{}).Error; err != nil {
			return storeErr("delete post dislikes", err)
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.Post{}).Error; err != nil {
			return storeErr("delete posts", err)
		}

		if err := tx.Delete(&models.User{}, userID).Error; err != nil {
			return storeErr("delete user", err)
		}
		if user.Image != nil {
			avatar = user.Image.Path
			if err := tx.Delete(&models.Image{}, user.Image.ID).Error; err != nil {
				return storeErr("delete image", err)
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	log.Printf("[user] deleted account %d", userID)
	return avatar, nil
}

// AllEmails returns every registered address.
func (s *UserService) AllEmails(ctx context.Context) ([]string, error) {
	var emails []string
	if err := s.db.WithContext(ctx).Model(&models.User{}).Order("id ASC").Pluck("email", &emails).Error; err != nil {
		return nil, storeErr("list emails", err)
	}
	return emails, nil
}
