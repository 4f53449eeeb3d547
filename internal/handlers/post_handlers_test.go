package handlers_test

import (
	"database/sql"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmarkova/blogview/internal/auth"
)

func TestGlobalFeedReturnsLivePosts(t *testing.T) {
	router, mock := newTestServer(t)

	rows := sqlmock.NewRows(feedRowColumns).
		AddRow(1, "Release notes", "We shipped.", time.Now().Add(-time.Hour), true, nil,
			1, "alice", 1, "Announcements", "announcements", true, 2)

	mock.ExpectQuery("FROM posts p").
		WithArgs(sqlmock.AnyArg(), 10, 0).
		WillReturnRows(rows)

	w := doRequest(router, http.MethodGet, "/posts/", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Release notes")
	assert.Contains(t, w.Body.String(), `"commentCount":2`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGlobalFeedPagination(t *testing.T) {
	router, mock := newTestServer(t)

	mock.ExpectQuery("FROM posts p").
		WithArgs(sqlmock.AnyArg(), 10, 20).
		WillReturnRows(sqlmock.NewRows(feedRowColumns))

	w := doRequest(router, http.MethodGet, "/posts/?page=3", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"page":3`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryFeedUnknownCategoryIsNotFound(t *testing.T) {
	router, mock := newTestServer(t)

	mock.ExpectQuery("FROM categories WHERE slug").
		WithArgs("nope").
		WillReturnError(sql.ErrNoRows)

	w := doRequest(router, http.MethodGet, "/posts/category/nope/", "", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryFeedListsCategoryPosts(t *testing.T) {
	router, mock := newTestServer(t)

	mock.ExpectQuery("FROM categories WHERE slug").
		WithArgs("announcements").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "description", "slug", "is_published", "created_at"}).
			AddRow(1, "Announcements", "Official news", "announcements", true, time.Now()))

	rows := sqlmock.NewRows(feedRowColumns).
		AddRow(10, "Post A", "Live one.", time.Now().Add(-time.Hour), true, nil,
			1, "alice", 1, "Announcements", "announcements", true, 0)

	mock.ExpectQuery("FROM posts p").
		WithArgs(int64(1), sqlmock.AnyArg(), 10, 0).
		WillReturnRows(rows)

	w := doRequest(router, http.MethodGet, "/posts/category/announcements/", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Post A")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func detailRow(authorID int64, isPublished bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "title", "text", "pub_date", "is_published", "image_url",
		"author_id", "username",
		"category_id", "category_title", "category_description", "category_slug", "category_is_published",
	}).AddRow(5, "Hidden gem", "Not ready yet.", time.Now().Add(-time.Hour), isPublished, nil,
		authorID, "alice", nil, nil, nil, nil, nil)
}

func TestPostDetailHiddenFromAnonymous(t *testing.T) {
	router, mock := newTestServer(t)

	mock.ExpectQuery("FROM posts p").
		WithArgs(int64(5)).
		WillReturnRows(detailRow(7, false))

	w := doRequest(router, http.MethodGet, "/posts/5/", "", nil)

	// Invisible and missing posts are indistinguishable.
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostDetailVisibleToAuthor(t *testing.T) {
	router, mock := newTestServer(t)

	token, err := auth.GenerateToken(7)
	require.NoError(t, err)

	mock.ExpectQuery("FROM posts p").
		WithArgs(int64(5)).
		WillReturnRows(detailRow(7, false))
	mock.ExpectQuery("FROM comments cm").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "text", "post_id", "author_id", "username", "created_at"}))

	w := doRequest(router, http.MethodGet, "/posts/5/", token, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Hidden gem")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostDetailHiddenFromOtherUsers(t *testing.T) {
	router, mock := newTestServer(t)

	token, err := auth.GenerateToken(8)
	require.NoError(t, err)

	mock.ExpectQuery("FROM posts p").
		WithArgs(int64(5)).
		WillReturnRows(detailRow(7, false))

	w := doRequest(router, http.MethodGet, "/posts/5/", token, nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePostRequiresLogin(t *testing.T) {
	router, mock := newTestServer(t)

	w := doRequest(router, http.MethodPost, "/posts/create/", "", map[string]string{
		"title": "Drive-by",
		"text":  "Should never persist.",
	})

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
	// No DB expectations were registered: nothing may be written.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePostSetsAuthorFromToken(t *testing.T) {
	router, mock := newTestServer(t)

	token, err := auth.GenerateToken(3)
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO posts").
		WithArgs("My title", "Body text", sqlmock.AnyArg(), int64(3), nil, nil).
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectQuery("SELECT username FROM users WHERE id").
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"username"}).AddRow("carol"))

	w := doRequest(router, http.MethodPost, "/posts/create/", token, map[string]string{
		"title": "My title",
		"text":  "Body text",
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "/users/carol/", w.Header().Get("Location"))
	assert.Contains(t, w.Body.String(), `"postId":11`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePostRejectsMissingTitle(t *testing.T) {
	router, mock := newTestServer(t)

	token, err := auth.GenerateToken(3)
	require.NoError(t, err)

	w := doRequest(router, http.MethodPost, "/posts/create/", token, map[string]string{
		"text": "No title here.",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func editFetchRow(authorID int64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "title", "text", "pub_date", "is_published", "image_url", "author_id", "category_id",
	}).AddRow(5, "Original", "Original text.", time.Now().Add(-time.Hour), true, nil, authorID, nil)
}

func TestEditPostByNonOwnerRedirectsToDetail(t *testing.T) {
	router, mock := newTestServer(t)

	token, err := auth.GenerateToken(2)
	require.NoError(t, err)

	mock.ExpectQuery("FROM posts WHERE id").
		WithArgs(int64(5)).
		WillReturnRows(editFetchRow(1))

	w := doRequest(router, http.MethodPost, "/posts/5/edit/", token, map[string]string{
		"title": "Hijacked",
	})

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/posts/5/", w.Header().Get("Location"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEditPostByOwnerUpdates(t *testing.T) {
	router, mock := newTestServer(t)

	token, err := auth.GenerateToken(1)
	require.NoError(t, err)

	mock.ExpectQuery("FROM posts WHERE id").
		WithArgs(int64(5)).
		WillReturnRows(editFetchRow(1))
	mock.ExpectExec("UPDATE posts SET").
		WithArgs("Better title", int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := doRequest(router, http.MethodPost, "/posts/5/edit/", token, map[string]string{
		"title": "Better title",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/posts/5/", w.Header().Get("Location"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeletePostByNonOwnerIsForbidden(t *testing.T) {
	router, mock := newTestServer(t)

	token, err := auth.GenerateToken(2)
	require.NoError(t, err)

	mock.ExpectQuery("FROM posts WHERE id").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "title", "text", "pub_date", "is_published", "author_id",
		}).AddRow(5, "Keep me", "Still here.", time.Now(), true, 1))

	w := doRequest(router, http.MethodPost, "/posts/5/delete/", token, nil)

	assert.Equal(t, http.StatusForbidden, w.Code)
	// No DELETE was expected or performed.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeletePostByOwnerDeletes(t *testing.T) {
	router, mock := newTestServer(t)

	token, err := auth.GenerateToken(1)
	require.NoError(t, err)

	mock.ExpectQuery("FROM posts WHERE id").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "title", "text", "pub_date", "is_published", "author_id",
		}).AddRow(5, "Goodbye", "Deleting.", time.Now(), true, 1))
	mock.ExpectExec("DELETE FROM posts").
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := doRequest(router, http.MethodPost, "/posts/5/delete/", token, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/posts/", w.Header().Get("Location"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteMissingPostIsNotFound(t *testing.T) {
	router, mock := newTestServer(t)

	token, err := auth.GenerateToken(1)
	require.NoError(t, err)

	mock.ExpectQuery("FROM posts WHERE id").
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	w := doRequest(router, http.MethodPost, "/posts/99/delete/", token, nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
