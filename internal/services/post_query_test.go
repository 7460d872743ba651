package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListAllPosts_OrderedByLikeCount(t *testing.T) {
	conn := newTestDB(t)
	q := NewPostQueryService(conn)
	ctx := context.Background()

	alice := mustUser(t, conn, "alice")
	bob := mustUser(t, conn, "bob")
	carol := mustUser(t, conn, "carol")

	p1 := mustPost(t, conn, alice, "one", "first")
	p2 := mustPost(t, conn, alice, "two", "second")
	p3 := mustPost(t, conn, bob, "three", "third")
	p4 := mustPost(t, conn, bob, "four", "fourth")
	p5 := mustPost(t, conn, carol, "five", "fifth")

	mustLike(t, conn, alice, p3)
	mustLike(t, conn, bob, p3)
	mustLike(t, conn, carol, p3)
	mustLike(t, conn, alice, p1)
	mustLike(t, conn, bob, p1)
	mustLike(t, conn, alice, p5)
	// dislikes must not count
	mustDislike(t, conn, alice, p4)
	mustDislike(t, conn, bob, p4)

	page1, err := q.ListAllPosts(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []uint{p3.ID, p1.ID, p5.ID}, postIDs(page1.Posts))
	assert.Equal(t, int64(3), page1.Posts[0].LikeCount)
	assert.Equal(t, int64(2), page1.Posts[1].LikeCount)
	assert.Equal(t, int64(1), page1.Posts[2].LikeCount)
	assert.Equal(t, "bob", page1.Posts[0].User.Name)
	assert.Equal(t, int64(5), page1.Total)
	assert.Equal(t, 2, page1.TotalPages)
	assert.True(t, page1.HasNext())
	assert.False(t, page1.HasPrev())

	page2, err := q.ListAllPosts(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []uint{p4.ID, p2.ID}, postIDs(page2.Posts))
	assert.False(t, page2.HasNext())
}

func TestListAllPosts_NeverMoreThanPageSize(t *testing.T) {
	conn := newTestDB(t)
	q := NewPostQueryService(conn)
	alice := mustUser(t, conn, "alice")
	for i := 0; i < 10; i++ {
		mustPost(t, conn, alice, "title", "content")
	}

	for page := 1; page <= 4; page++ {
		res, err := q.ListAllPosts(context.Background(), page)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(res.Posts), PostsPerPage)
	}
}

func TestListAllPosts_PageBeyondLastIsEmpty(t *testing.T) {
	conn := newTestDB(t)
	q := NewPostQueryService(conn)
	alice := mustUser(t, conn, "alice")
	mustPost(t, conn, alice, "only", "post")

	res, err := q.ListAllPosts(context.Background(), 7)
	require.NoError(t, err)
	assert.Empty(t, res.Posts)
	assert.Equal(t, 7, res.Page)

	// non-positive pages fall back to the first page
	res, err = q.ListAllPosts(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, res.Posts, 1)
	assert.Equal(t, 1, res.Page)
}

func TestListAllPosts_EmptyStore(t *testing.T) {
	q := NewPostQueryService(newTestDB(t))
	res, err := q.ListAllPosts(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, res.Posts)
	assert.Equal(t, 1, res.TotalPages)
}

func TestListUserPosts(t *testing.T) {
	conn := newTestDB(t)
	q := NewPostQueryService(conn)
	ctx := context.Background()

	alice := mustUser(t, conn, "alice")
	bob := mustUser(t, conn, "bob")
	a1 := mustPost(t, conn, alice, "a1", "x")
	a2 := mustPost(t, conn, alice, "a2", "x")
	b1 := mustPost(t, conn, bob, "b1", "x")
	mustLike(t, conn, bob, a1)
	mustLike(t, conn, alice, b1)
	mustLike(t, conn, bob, b1)

	res, err := q.ListUserPosts(ctx, 1, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{a1.ID, a2.ID}, postIDs(res.Posts))
	assert.Equal(t, int64(2), res.Total)

	t.Run("unknown user gives an empty page", func(t *testing.T) {
		res, err := q.ListUserPosts(ctx, 1, 9999)
		require.NoError(t, err)
		assert.Empty(t, res.Posts)
		assert.Equal(t, int64(0), res.Total)
	})
}

func TestIsLikedAndIsDisliked(t *testing.T) {
	conn := newTestDB(t)
	q := NewPostQueryService(conn)
	ctx := context.Background()

	alice := mustUser(t, conn, "alice")
	bob := mustUser(t, conn, "bob")
	post := mustPost(t, conn, alice, "t", "c")

	liked, err := q.IsLiked(ctx, nil, post.ID)
	require.NoError(t, err)
	assert.False(t, liked)
	disliked, err := q.IsDisliked(ctx, nil, post.ID)
	require.NoError(t, err)
	assert.False(t, disliked)

	liked, err = q.IsLiked(ctx, uintPtr(bob.ID), post.ID)
	require.NoError(t, err)
	assert.False(t, liked)

	mustLike(t, conn, bob, post)
	liked, err = q.IsLiked(ctx, uintPtr(bob.ID), post.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	disliked, err = q.IsDisliked(ctx, uintPtr(bob.ID), post.ID)
	require.NoError(t, err)
	assert.False(t, disliked)

	// like and dislike edges are independent
	mustDislike(t, conn, bob, post)
	disliked, err = q.IsDisliked(ctx, uintPtr(bob.ID), post.ID)
	require.NoError(t, err)
	assert.True(t, disliked)

	// anonymous stays false even when edges exist
	liked, err = q.IsLiked(ctx, nil, post.ID)
	require.NoError(t, err)
	assert.False(t, liked)
}

func TestSearchPosts(t *testing.T) {
	conn := newTestDB(t)
	q := NewPostQueryService(conn)
	ctx := context.Background()

	alice := mustUser(t, conn, "alice")
	hello := mustPost(t, conn, alice, "Hello", "World")
	cabin := mustPost(t, conn, alice, "Log cabin", "made of wood")
	about := mustPost(t, conn, alice, "Notes", "All ABOUT gophers")
	mustPost(t, conn, alice, "100% sure", "nothing else")

	ids := func(rs []SearchResult) []uint {
		out := make([]uint, len(rs))
		for i, r := range rs {
			out[i] = r.ID
		}
		return out
	}

	t.Run("case-insensitive title match", func(t *testing.T) {
		rs, err := q.SearchPosts(ctx, "hello")
		require.NoError(t, err)
		assert.Equal(t, []uint{hello.ID}, ids(rs))
		assert.Equal(t, "Hello", rs[0].Title)
	})

	t.Run("no match", func(t *testing.T) {
		rs, err := q.SearchPosts(ctx, "xyz")
		require.NoError(t, err)
		assert.Empty(t, rs)
	})

	t.Run("substring in title or content", func(t *testing.T) {
		rs, err := q.SearchPosts(ctx, "ab")
		require.NoError(t, err)
		assert.ElementsMatch(t, []uint{cabin.ID, about.ID}, ids(rs))
	})

	t.Run("terms are OR-ed", func(t *testing.T) {
		rs, err := q.SearchPosts(ctx, "world   wood world")
		require.NoError(t, err)
		assert.ElementsMatch(t, []uint{hello.ID, cabin.ID}, ids(rs))
	})

	t.Run("single character terms are dropped", func(t *testing.T) {
		rs, err := q.SearchPosts(ctx, "a")
		require.NoError(t, err)
		assert.Empty(t, rs)

		rs, err = q.SearchPosts(ctx, "a hello o")
		require.NoError(t, err)
		assert.Equal(t, []uint{hello.ID}, ids(rs))
	})

	t.Run("empty query matches nothing", func(t *testing.T) {
		rs, err := q.SearchPosts(ctx, "   ")
		require.NoError(t, err)
		assert.NotNil(t, rs)
		assert.Empty(t, rs)
	})

	t.Run("wildcards are literal", func(t *testing.T) {
		rs, err := q.SearchPosts(ctx, "__")
		require.NoError(t, err)
		assert.Empty(t, rs)

		rs, err = q.SearchPosts(ctx, "0%")
		require.NoError(t, err)
		assert.Len(t, rs, 1)
	})
}

func TestPrepareSearchTerms(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"empty", "", nil},
		{"whitespace only", " \t\n ", nil},
		{"drops short terms", "a go b", []string{"go"}},
		{"dedupes", "go go Go rust", []string{"go", "rust"}},
		{"counts characters not bytes", "é éé", []string{"éé"}},
		{"splits on any whitespace", "one\ttwo\nthree", []string{"one", "two", "three"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PrepareSearchTerms(tt.query))
		})
	}
}
