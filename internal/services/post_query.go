package services

import (
	"context"
	"math"
	"strings"
	"unicode/utf8"

	"postly/internal/models"

	"gorm.io/gorm"
)

// PostsPerPage is fixed for every post listing.
const PostsPerPage = 3

const minSearchTermLen = 2

type PostPage struct {
	Posts      []models.Post
	Page       int
	PerPage    int
	Total      int64
	TotalPages int
}

func (p *PostPage) HasPrev() bool { return p.Page > 1 }
func (p *PostPage) HasNext() bool { return p.Page < p.TotalPages }
func (p *PostPage) PrevPage() int { return p.Page - 1 }
func (p *PostPage) NextPage() int { return p.Page + 1 }

type SearchResult struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
}

// PostQueryService holds only the database handle; every method is a read.
type PostQueryService struct {
	db *gorm.DB
}

func NewPostQueryService(db *gorm.DB) *PostQueryService {
	return &PostQueryService{db: db}
}

// ListAllPosts returns one page of posts ordered by like count, most liked first.
// A page past the end is empty, not an error.
func (s *PostQueryService) ListAllPosts(ctx context.Context, page int) (*PostPage, error) {
	return s.listPosts(ctx, page, nil)
}

// ListUserPosts is ListAllPosts restricted to one author. Unknown authors give an empty page.
func (s *PostQueryService) ListUserPosts(ctx context.Context, page int, userID uint) (*PostPage, error) {
	return s.listPosts(ctx, page, &userID)
}

func ownedBy(userID *uint) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		if userID == nil {
			return tx
		}
		return tx.Where("posts.user_id = ?", *userID)
	}
}

func (s *PostQueryService) listPosts(ctx context.Context, page int, userID *uint) (*PostPage, error) {
	if page < 1 {
		page = 1
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Post{}).Scopes(ownedBy(userID)).Count(&total).Error; err != nil {
		return nil, storeErr("count posts", err)
	}

	totalPages := int(math.Ceil(float64(total) / float64(PostsPerPage)))
	if totalPages == 0 {
		totalPages = 1
	}

	posts := make([]models.Post, 0, PostsPerPage)
	err := s.db.WithContext(ctx).
		Model(&models.Post{}).
		Scopes(ownedBy(userID)).
		Select("posts.*, COUNT(post_user_likes.user_id) AS like_count").
		Joins("LEFT JOIN post_user_likes ON post_user_likes.post_id = posts.id").
		Group("posts.id").
		Order("like_count DESC").
		Order("posts.id DESC").
		Limit(PostsPerPage).
		Offset((page - 1) * PostsPerPage).
		Preload("User").
		Preload("User.Image").
		Find(&posts).Error
	if err != nil {
		return nil, storeErr("list posts", err)
	}

	return &PostPage{
		Posts:      posts,
		Page:       page,
		PerPage:    PostsPerPage,
		Total:      total,
		TotalPages: totalPages,
	}, nil
}

// IsLiked reports whether userID likes postID. A nil user never likes anything.
func (s *PostQueryService) IsLiked(ctx context.Context, userID *uint, postID uint) (bool, error) {
	if userID == nil {
		return false, nil
	}
	return s.edgeExists(ctx, &models.PostLike{}, *userID, postID)
}

// IsDisliked is IsLiked for the dislike edge.
func (s *PostQueryService) IsDisliked(ctx context.Context, userID *uint, postID uint) (bool, error) {
	if userID == nil {
		return false, nil
	}
	return s.edgeExists(ctx, &models.PostDislike{}, *userID, postID)
}

func (s *PostQueryService) edgeExists(ctx context.Context, edge interface{}, userID, postID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(edge).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&count).Error
	if err != nil {
		return false, storeErr("edge exists", err)
	}
	return count > 0, nil
}

// SearchPosts matches any surviving term, case-insensitively, against title or content.
// Results come back in store order. A query with no usable terms matches nothing.
func (s *PostQueryService) SearchPosts(ctx context.Context, query string) ([]SearchResult, error) {
	results := []SearchResult{}

	terms := PrepareSearchTerms(query)
	if len(terms) == 0 {
		return results, nil
	}

	clauses := make([]string, 0, len(terms)*2)
	args := make([]interface{}, 0, len(terms)*2)
	for _, term := range terms {
		pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
		clauses = append(clauses, `LOWER(title) LIKE ? ESCAPE '\'`, `LOWER(content) LIKE ? ESCAPE '\'`)
		args = append(args, pattern, pattern)
	}

	err := s.db.WithContext(ctx).
		Model(&models.Post{}).
		Select("id, title").
		Where(strings.Join(clauses, " OR "), args...).
		Scan(&results).Error
	if err != nil {
		return nil, storeErr("search posts", err)
	}
	return results, nil
}

// PrepareSearchTerms splits on whitespace, drops duplicates (ignoring case)
// and drops terms shorter than two characters.
func PrepareSearchTerms(query string) []string {
	seen := make(map[string]bool)
	var terms []string
	for _, field := range strings.Fields(query) {
		if utf8.RuneCountInString(field) < minSearchTermLen {
			continue
		}
		key := strings.ToLower(field)
		if seen[key] {
			continue
		}
		seen[key] = true
		terms = append(terms, field)
	}
	return terms
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
