package services

import (
	"fmt"
	"testing"

	"postly/internal/db"
	"postly/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	// one connection, otherwise every pooled connection gets its own empty :memory: database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(conn))
	return conn
}

func mustUser(t *testing.T, conn *gorm.DB, name string) *models.User {
	t.Helper()
	u := &models.User{Name: name, Email: fmt.Sprintf("%s@example.com", name), Password: "x"}
	require.NoError(t, conn.Create(u).Error)
	return u
}

func mustPost(t *testing.T, conn *gorm.DB, owner *models.User, title, content string) *models.Post {
	t.Helper()
	p := &models.Post{Title: title, Content: content, UserID: owner.ID}
	require.NoError(t, conn.Omit(clause.Associations).Create(p).Error)
	return p
}

func mustLike(t *testing.T, conn *gorm.DB, u *models.User, p *models.Post) {
	t.Helper()
	require.NoError(t, conn.Omit(clause.Associations).Create(&models.PostLike{UserID: u.ID, PostID: p.ID}).Error)
}

func mustDislike(t *testing.T, conn *gorm.DB, u *models.User, p *models.Post) {
	t.Helper()
	require.NoError(t, conn.Omit(clause.Associations).Create(&models.PostDislike{UserID: u.ID, PostID: p.ID}).Error)
}

func postIDs(posts []models.Post) []uint {
	ids := make([]uint, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	return ids
}

func uintPtr(v uint) *uint { return &v }
