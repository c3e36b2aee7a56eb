package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"blogapi/internal/handlers"
	"blogapi/internal/middleware"
	"blogapi/internal/models"
	"blogapi/internal/repositories"
	"blogapi/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testJWTSecret = "test_jwt_secret"

type testEnv struct {
	app    *fiber.App
	auth   *services.AuthService
	author models.User
	other  models.User
	post   models.Blogpost
}

// setupApp sets up a Fiber app backed by a private in-memory SQLite database.
func setupApp(t *testing.T) *testEnv {
	t.Helper()

	dsn := "file:" + uuid.New().String() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Blogpost{}))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	userRepo := repositories.NewGORMUserRepository(db)
	postRepo := repositories.NewGORMBlogpostRepository(db)
	authService := services.NewAuthService(userRepo, testJWTSecret, time.Hour, nil)
	blogpostService := services.NewBlogpostService(postRepo, nil, nil)

	app := fiber.New(fiber.Config{Immutable: true, ErrorHandler: handlers.ErrorHandler(zap.NewNop())})
	apiV1 := app.Group("/api/v1", middleware.Authenticate(authService))
	protect := middleware.RequireUser()
	handlers.NewBlogpostHandler(blogpostService).RegisterRoutes(apiV1, protect)
	handlers.NewAuthHandler().RegisterRoutes(apiV1, protect)

	env := &testEnv{app: app, auth: authService}
	env.seed(t, userRepo, postRepo)
	return env
}

func (e *testEnv) seed(t *testing.T, users repositories.UserRepository, posts repositories.BlogpostRepository) {
	t.Helper()
	ctx := context.Background()
	saved, err := users.SaveAll(ctx, []models.User{
		{ID: uuid.New().String(), Username: "writer", FullName: "Jane Writer"},
		{ID: uuid.New().String(), Username: "reader", FullName: "John Reader"},
	})
	require.NoError(t, err)
	e.author, e.other = saved[0], saved[1]

	post := &models.Blogpost{
		ID:          uuid.New().String(),
		Title:       "First post",
		Description: "Hello world",
		CreatedAt:   time.Now(),
		Publisher:   &e.author,
	}
	require.NoError(t, posts.Save(ctx, post))
	e.post = *post
}

func (e *testEnv) token(t *testing.T, username string) string {
	t.Helper()
	token, err := e.auth.IssueToken(username)
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func postPayload(title, description, publisherID string) fiber.Map {
	return fiber.Map{
		"title":       title,
		"description": description,
		"publisher":   fiber.Map{"id": publisherID},
	}
}

func TestGetBlogposts(t *testing.T) {
	env := setupApp(t)

	resp := env.do(t, http.MethodGet, "/api/v1/blogposts", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var posts []models.Blogpost
	decode(t, resp, &posts)
	require.Len(t, posts, 1)
	assert.Equal(t, env.post.ID, posts[0].ID)
	require.NotNil(t, posts[0].Publisher)
	assert.Equal(t, "Jane Writer", posts[0].Publisher.FullName)

	resp = env.do(t, http.MethodGet, "/api/v1/blogposts?search=Writer", "", nil)
	decode(t, resp, &posts)
	assert.Len(t, posts, 1)

	resp = env.do(t, http.MethodGet, "/api/v1/blogposts?search=nothing-matches", "", nil)
	decode(t, resp, &posts)
	assert.Empty(t, posts)
}

func TestGetBlogpostByID(t *testing.T) {
	env := setupApp(t)

	resp := env.do(t, http.MethodGet, "/api/v1/blogposts/"+env.post.ID, "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var post models.Blogpost
	decode(t, resp, &post)
	assert.Equal(t, "First post", post.Title)
	assert.Equal(t, 1, post.Version)

	missing := uuid.New().String()
	resp = env.do(t, http.MethodGet, "/api/v1/blogposts/"+missing, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var body []string
	decode(t, resp, &body)
	assert.Equal(t, []string{fmt.Sprintf("blogpost %s not found", missing)}, body)
}

func TestCreateBlogpost(t *testing.T) {
	env := setupApp(t)
	token := env.token(t, "writer")

	resp := env.do(t, http.MethodPost, "/api/v1/blogposts", token, postPayload("New", "Fresh content", env.other.ID))
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var created models.Blogpost
	decode(t, resp, &created)
	assert.NotEmpty(t, created.ID)
	assert.NotEqual(t, env.post.ID, created.ID)
	assert.Equal(t, "New", created.Title)
	assert.Nil(t, created.UpdatedAt)
	require.NotNil(t, created.Publisher)
	assert.Equal(t, "reader", created.Publisher.Username)

	resp = env.do(t, http.MethodGet, "/api/v1/blogposts/"+created.ID, "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestCreateBlogpostValidation(t *testing.T) {
	env := setupApp(t)
	token := env.token(t, "writer")

	tests := []struct {
		name    string
		payload fiber.Map
		message string
	}{
		{"blank title", postPayload("  ", "content", env.author.ID), services.MsgTitleRequired},
		{"missing description", postPayload("Title", "", env.author.ID), services.MsgDescriptionMissing},
		{"missing publisher", fiber.Map{"title": "Title", "description": "content"}, services.MsgPublisherMissing},
		{"bad id", fiber.Map{"id": "123", "title": "Title", "description": "content", "publisher": fiber.Map{"id": env.author.ID}}, services.MsgInvalidID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(t, http.MethodPost, "/api/v1/blogposts", token, tt.payload)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			var body []string
			decode(t, resp, &body)
			assert.Equal(t, []string{tt.message}, body)
		})
	}
}

func TestCreateBlogpostUnknownPublisher(t *testing.T) {
	env := setupApp(t)

	resp := env.do(t, http.MethodPost, "/api/v1/blogposts", env.token(t, "writer"), postPayload("New", "content", uuid.New().String()))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var body []string
	decode(t, resp, &body)
	assert.Equal(t, []string{services.MsgPublisherMissing}, body)

	resp = env.do(t, http.MethodGet, "/api/v1/blogposts", "", nil)
	var posts []models.Blogpost
	decode(t, resp, &posts)
	assert.Len(t, posts, 1)
}

func TestBlogpostUpperCaseID(t *testing.T) {
	env := setupApp(t)
	path := "/api/v1/blogposts/" + strings.ToUpper(env.post.ID)

	resp := env.do(t, http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = env.do(t, http.MethodPut, path, env.token(t, "writer"), postPayload("Shouted", "content", env.author.ID))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var updated models.Blogpost
	decode(t, resp, &updated)
	assert.Equal(t, env.post.ID, updated.ID)
	assert.Equal(t, "Shouted", updated.Title)
}

func TestCreateBlogpostMalformedBody(t *testing.T) {
	env := setupApp(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/blogposts", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+env.token(t, "writer"))
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestAuthorization(t *testing.T) {
	env := setupApp(t)
	payload := postPayload("New", "content", env.author.ID)

	t.Run("anonymous write", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/api/v1/blogposts", "", payload)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		var body []string
		decode(t, resp, &body)
		assert.Equal(t, []string{"authentication required"}, body)
	})

	t.Run("invalid token", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/api/v1/blogposts", "not-a-jwt", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("unknown user stays anonymous", func(t *testing.T) {
		ghost := env.token(t, "ghost")

		resp := env.do(t, http.MethodGet, "/api/v1/blogposts", ghost, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()

		resp = env.do(t, http.MethodDelete, "/api/v1/blogposts/"+env.post.ID, ghost, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("me", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/api/v1/me", env.token(t, "writer"), nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body struct {
			User        models.User `json:"user"`
			Authorities []string    `json:"authorities"`
		}
		decode(t, resp, &body)
		assert.Equal(t, env.author.ID, body.User.ID)
		assert.Equal(t, []string{models.DefaultRole}, body.Authorities)

		resp = env.do(t, http.MethodGet, "/api/v1/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		resp.Body.Close()
	})
}

func TestUpdateBlogpost(t *testing.T) {
	env := setupApp(t)
	token := env.token(t, "writer")
	path := "/api/v1/blogposts/" + env.post.ID

	payload := postPayload("Edited", "Edited content", env.author.ID)
	payload["version"] = 1
	payload["id"] = uuid.New().String() // ignored in favour of the path id
	resp := env.do(t, http.MethodPut, path, token, payload)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var updated models.Blogpost
	decode(t, resp, &updated)
	assert.Equal(t, env.post.ID, updated.ID)
	assert.Equal(t, "Edited", updated.Title)
	assert.Equal(t, 2, updated.Version)
	assert.NotNil(t, updated.UpdatedAt)

	// A stale write gets the stored post back unchanged.
	stale := postPayload("Stale", "Stale content", env.author.ID)
	stale["version"] = 1
	resp = env.do(t, http.MethodPut, path, token, stale)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var current models.Blogpost
	decode(t, resp, &current)
	assert.Equal(t, "Edited", current.Title)
	assert.Equal(t, 2, current.Version)

	resp = env.do(t, http.MethodPut, path, token, postPayload("", "content", env.author.ID))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var body []string
	decode(t, resp, &body)
	assert.Equal(t, []string{services.MsgTitleRequired}, body)
}

func TestUpdateDeletedBlogpost(t *testing.T) {
	env := setupApp(t)
	token := env.token(t, "writer")

	resp := env.do(t, http.MethodPut, "/api/v1/blogposts/"+uuid.New().String(), token, postPayload("Title", "content", env.author.ID))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var body []string
	decode(t, resp, &body)
	assert.Equal(t, []string{services.MsgAlreadyDeleted}, body)

	resp = env.do(t, http.MethodPut, "/api/v1/blogposts/not-a-uuid", token, postPayload("Title", "content", env.author.ID))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	decode(t, resp, &body)
	assert.Equal(t, []string{services.MsgInvalidID}, body)
}

func TestDeleteBlogpost(t *testing.T) {
	env := setupApp(t)
	token := env.token(t, "writer")
	path := "/api/v1/blogposts/" + env.post.ID

	resp := env.do(t, http.MethodDelete, path, token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp = env.do(t, http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// Deleting again is not an error.
	resp = env.do(t, http.MethodDelete, path, token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()
}
