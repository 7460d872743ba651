package models

import (
	"strings"
	"time"
)

const RoleUser = "ROLE_USER"

type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255" json:"name"`
	Email     string    `gorm:"uniqueIndex;size:180;not null" json:"email"`
	Password  string    `gorm:"not null" json:"-"` // Hash
	Roles     string    `gorm:"size:255;default:''" json:"-"`
	ImageID   *uint     `json:"image_id"`
	Image     *Image    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"image,omitempty"`
	Posts     []Post    `gorm:"foreignKey:UserID" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RoleSet returns the user's roles. ROLE_USER is always present.
func (u User) RoleSet() []string {
	roles := []string{RoleUser}
	seen := map[string]bool{RoleUser: true}
	for _, r := range strings.Split(u.Roles, ",") {
		r = strings.TrimSpace(r)
		if r == "" || seen[r] {
			continue
		}
		seen[r] = true
		roles = append(roles, r)
	}
	return roles
}

func (u User) HasRole(role string) bool {
	for _, r := range u.RoleSet() {
		if r == role {
			return true
		}
	}
	return false
}

// DisplayName falls back to the local part of the email when no name is set.
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	if i := strings.Index(u.Email, "@"); i > 0 {
		return u.Email[:i]
	}
	return u.Email
}

// AvatarPath is the avatar file name, or "" if the user has none.
func (u User) AvatarPath() string {
	if u.Image == nil {
		return ""
	}
	return u.Image.Path
}
