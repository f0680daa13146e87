package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/quillfeed/quillfeed/internal/cache"
	"github.com/quillfeed/quillfeed/internal/db"
	"github.com/quillfeed/quillfeed/pkg/config"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))

	cfg := &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:      "test-secret-key",
			AccessExpires:  time.Hour,
			RefreshExpires: 24 * time.Hour,
		},
		Content: config.ContentConfig{
			EditTimeLimit:    24 * time.Hour,
			MinContentLength: 1,
			MaxContentLength: 512,
		},
		Feed: config.FeedConfig{
			DefaultLimit: 50,
			CursorTTL:    15 * time.Minute,
		},
	}

	engine := gin.New()
	NewRouter(&db.DB{DB: gdb}, cache.NewMemory(), cfg).SetupRoutes(engine)
	return engine
}

func doJSON(t *testing.T, engine *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func registerAccount(t *testing.T, engine *gin.Engine, username string) string {
	t.Helper()

	rec := doJSON(t, engine, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"username": username,
		"email":    username + "@example.com",
		"password": "1Password",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var pair struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pair))
	require.NotEmpty(t, pair.AccessToken)
	return pair.AccessToken
}

func TestHealth(t *testing.T) {
	engine := setupRouter(t)

	rec := doJSON(t, engine, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "quillfeed-api")
}

func TestAuthEndpoints(t *testing.T) {
	t.Run("register then sign in", func(t *testing.T) {
		engine := setupRouter(t)
		registerAccount(t, engine, "alice")

		rec := doJSON(t, engine, http.MethodPost, "/api/v1/auth/sign-in", "", gin.H{
			"username": "alice",
			"password": "1Password",
		})
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("register rejects a short password", func(t *testing.T) {
		engine := setupRouter(t)

		rec := doJSON(t, engine, http.MethodPost, "/api/v1/auth/register", "", gin.H{
			"username": "alice",
			"email":    "alice@example.com",
			"password": "short",
		})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("duplicate registration conflicts", func(t *testing.T) {
		engine := setupRouter(t)
		registerAccount(t, engine, "alice")

		rec := doJSON(t, engine, http.MethodPost, "/api/v1/auth/register", "", gin.H{
			"username": "alice",
			"email":    "other@example.com",
			"password": "1Password",
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("wrong password is unauthorized", func(t *testing.T) {
		engine := setupRouter(t)
		registerAccount(t, engine, "alice")

		rec := doJSON(t, engine, http.MethodPost, "/api/v1/auth/sign-in", "", gin.H{
			"username": "alice",
			"password": "wrong-password",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("current user requires a token", func(t *testing.T) {
		engine := setupRouter(t)
		token := registerAccount(t, engine, "alice")

		rec := doJSON(t, engine, http.MethodGet, "/api/v1/auth/user", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		rec = doJSON(t, engine, http.MethodGet, "/api/v1/auth/user", token, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"alice"`)
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		engine := setupRouter(t)

		rec := doJSON(t, engine, http.MethodGet, "/api/v1/auth/user", "not.a.token", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestPostEndpoints(t *testing.T) {
	t.Run("create, update, archive", func(t *testing.T) {
		engine := setupRouter(t)
		token := registerAccount(t, engine, "alice")

		rec := doJSON(t, engine, http.MethodPost, "/api/v1/posts", token, gin.H{"content": "hello"})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var created struct {
			ID int64 `json:"id"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
		require.NotZero(t, created.ID)

		rec = doJSON(t, engine, http.MethodPut, "/api/v1/posts/1", token, gin.H{"content": "hello world"})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "hello world")

		rec = doJSON(t, engine, http.MethodPost, "/api/v1/posts/1/archive", token, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("content length is validated", func(t *testing.T) {
		engine := setupRouter(t)
		token := registerAccount(t, engine, "alice")

		rec := doJSON(t, engine, http.MethodPost, "/api/v1/posts", token, gin.H{"content": ""})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		long := make([]byte, 513)
		for i := range long {
			long[i] = 'x'
		}
		rec = doJSON(t, engine, http.MethodPost, "/api/v1/posts", token, gin.H{"content": string(long)})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("updating someone else's post is forbidden", func(t *testing.T) {
		engine := setupRouter(t)
		aliceToken := registerAccount(t, engine, "alice")
		bobToken := registerAccount(t, engine, "bob")

		rec := doJSON(t, engine, http.MethodPost, "/api/v1/posts", aliceToken, gin.H{"content": "hello"})
		require.Equal(t, http.StatusCreated, rec.Code)

		rec = doJSON(t, engine, http.MethodPut, "/api/v1/posts/1", bobToken, gin.H{"content": "hijacked"})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("reposting a missing post is not found", func(t *testing.T) {
		engine := setupRouter(t)
		token := registerAccount(t, engine, "alice")

		rec := doJSON(t, engine, http.MethodPost, "/api/v1/posts/9999/repost", token, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("bad post id is not found", func(t *testing.T) {
		engine := setupRouter(t)
		token := registerAccount(t, engine, "alice")

		rec := doJSON(t, engine, http.MethodPut, "/api/v1/posts/abc", token, gin.H{"content": "hello"})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestFollowAndFeedEndpoints(t *testing.T) {
	engine := setupRouter(t)
	aliceToken := registerAccount(t, engine, "alice")
	bobToken := registerAccount(t, engine, "bob")

	rec := doJSON(t, engine, http.MethodPost, "/api/v1/posts", aliceToken, gin.H{"content": "hello"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, engine, http.MethodPost, "/api/v1/users/alice/follow", bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, engine, http.MethodGet, "/api/v1/home", bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var feed struct {
		Items []struct {
			Content string `json:"content"`
			User    struct {
				Username string `json:"username"`
			} `json:"user"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &feed))
	require.Len(t, feed.Items, 1)
	assert.Equal(t, "hello", feed.Items[0].Content)
	assert.Equal(t, "alice", feed.Items[0].User.Username)

	rec = doJSON(t, engine, http.MethodPost, "/api/v1/users/ghost/follow", bobToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, engine, http.MethodDelete, "/api/v1/users/alice/follow", bobToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, engine, http.MethodDelete, "/api/v1/users/alice/follow", bobToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
