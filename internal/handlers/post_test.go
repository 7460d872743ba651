package handlers_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"postly/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexListsMostLikedFirst(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	alice := app.register("Alice", "alice@example.com")
	bob := app.register("Bob", "bob@example.com")

	quiet := app.post(alice, "Quiet post", "nobody likes this")
	popular := app.post(alice, "Popular post", "everyone likes this")
	liked := app.post(bob, "Liked once", "one like")
	app.post(bob, "Fourth post", "lands on page two")

	require.NoError(t, app.svc.Posts.SetLike(ctx, alice.ID, popular.ID, true))
	require.NoError(t, app.svc.Posts.SetLike(ctx, bob.ID, popular.ID, true))
	require.NoError(t, app.svc.Posts.SetLike(ctx, alice.ID, liked.ID, true))

	resp := app.get(app.client(), "/")
	require.Equal(t, http.StatusOK, resp.Code)
	iPopular := strings.Index(resp.Body, "Popular post")
	iLiked := strings.Index(resp.Body, "Liked once")
	iFourth := strings.Index(resp.Body, "Fourth post")
	require.True(t, iPopular >= 0 && iLiked >= 0 && iFourth >= 0, resp.Body)
	assert.Less(t, iPopular, iLiked)
	assert.Less(t, iLiked, iFourth)
	assert.NotContains(t, resp.Body, "Quiet post")
	assert.Contains(t, resp.Body, "?page=2")

	resp = app.get(app.client(), "/?page=2")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body, quiet.Title)

	resp = app.get(app.client(), "/?page=9")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body, "No posts here yet.")
}

func TestUserPosts(t *testing.T) {
	app := newTestApp(t)
	alice := app.register("Alice", "alice@example.com")
	bob := app.register("Bob", "bob@example.com")
	app.post(alice, "Alice writes", "a")
	app.post(bob, "Bob writes", "b")

	resp := app.get(app.client(), fmt.Sprintf("/user/%d/posts", alice.ID))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body, "Posts by Alice")
	assert.Contains(t, resp.Body, "Alice writes")
	assert.NotContains(t, resp.Body, "Bob writes")

	assert.Equal(t, http.StatusNotFound, app.get(app.client(), "/user/999/posts").Code)
}

func TestShowPost(t *testing.T) {
	app := newTestApp(t)
	alice := app.register("Alice", "alice@example.com")
	app.register("Bob", "bob@example.com")
	post := app.post(alice, "Markdown", "some **bold** words")

	resp := app.get(app.client(), fmt.Sprintf("/post/%d", post.ID))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body, "<strong>bold</strong>")
	assert.Contains(t, resp.Body, "Log in to react")
	assert.NotContains(t, resp.Body, "/post/edit/")

	owner := app.get(app.loggedIn("alice@example.com"), fmt.Sprintf("/post/%d", post.ID))
	assert.Contains(t, owner.Body, fmt.Sprintf("/post/edit/%d", post.ID))
	assert.NotContains(t, owner.Body, ">Follow<")

	other := app.get(app.loggedIn("bob@example.com"), fmt.Sprintf("/post/%d", post.ID))
	assert.NotContains(t, other.Body, fmt.Sprintf("/post/edit/%d", post.ID))
	assert.Contains(t, other.Body, "Follow")

	assert.Equal(t, http.StatusNotFound, app.get(app.client(), "/post/999").Code)
	assert.Equal(t, http.StatusNotFound, app.get(app.client(), "/post/abc").Code)
}

func TestCreatePostForm(t *testing.T) {
	app := newTestApp(t)
	app.register("Alice", "alice@example.com")

	anon := app.postForm(app.client(), "/post/new", url.Values{"title": {"t"}, "content": {"c"}})
	assert.Equal(t, http.StatusFound, anon.Code)
	assert.Equal(t, "/login", anon.Location)

	c := app.loggedIn("alice@example.com")
	resp := app.postForm(c, "/post/new", url.Values{"title": {""}, "content": {"c"}})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body, "Title cannot be blank")

	resp = app.postForm(c, "/post/new", url.Values{"title": {"Hello"}, "content": {"World"}})
	assert.Equal(t, http.StatusFound, resp.Code)
	assert.Equal(t, "/", resp.Location)

	home := app.get(c, "/")
	assert.Contains(t, home.Body, "Hello")
	assert.Contains(t, home.Body, "published")
}

func TestEditAndDeleteAreOwnerOnly(t *testing.T) {
	app := newTestApp(t)
	alice := app.register("Alice", "alice@example.com")
	app.register("Bob", "bob@example.com")
	post := app.post(alice, "Original", "text")

	bob := app.loggedIn("bob@example.com")
	assert.Equal(t, http.StatusForbidden, app.get(bob, fmt.Sprintf("/post/edit/%d", post.ID)).Code)
	assert.Equal(t, http.StatusForbidden,
		app.postForm(bob, fmt.Sprintf("/post/edit/%d", post.ID), url.Values{"title": {"Hacked"}, "content": {"x"}}).Code)
	assert.Equal(t, http.StatusForbidden, app.postForm(bob, fmt.Sprintf("/post/delete/%d", post.ID), nil).Code)

	owner := app.loggedIn("alice@example.com")
	form := app.get(owner, fmt.Sprintf("/post/edit/%d", post.ID))
	require.Equal(t, http.StatusOK, form.Code)
	assert.Contains(t, form.Body, `value="Original"`)

	resp := app.postForm(owner, fmt.Sprintf("/post/edit/%d", post.ID), url.Values{"title": {"Edited"}, "content": {"new text"}})
	assert.Equal(t, http.StatusFound, resp.Code)
	stored, err := app.svc.Posts.Get(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Edited", stored.Title)
	assert.NotNil(t, stored.UpdatedAt)

	resp = app.postForm(owner, fmt.Sprintf("/post/delete/%d", post.ID), nil)
	assert.Equal(t, http.StatusFound, resp.Code)
	_, err = app.svc.Posts.Get(context.Background(), post.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestSearch(t *testing.T) {
	app := newTestApp(t)
	alice := app.register("Alice", "alice@example.com")
	hello := app.post(alice, "Hello", "World")
	app.post(alice, "Other", "nothing")

	resp := app.do(app.client(), http.MethodGet, "/search?q=hello", nil, map[string]string{"Accept": "application/json"})
	require.Equal(t, http.StatusOK, resp.Code)
	var results []services.SearchResult
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &results))
	assert.Equal(t, []services.SearchResult{{ID: hello.ID, Title: "Hello"}}, results)

	resp = app.do(app.client(), http.MethodGet, "/search?q=a", nil, map[string]string{"Accept": "application/json"})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, "[]", resp.Body)

	page := app.get(app.client(), "/search?q=world")
	require.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body, fmt.Sprintf(`href="/post/%d"`, hello.ID))
}
