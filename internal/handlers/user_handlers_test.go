package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/bloglist/internal/models"
	"github.com/Skotchmaster/bloglist/internal/mykafka"
)

func newUserHandler(t *testing.T) *UserHandler {
	t.Helper()
	return &UserHandler{DB: initTestDB(t), Producer: &mykafka.Producer{}}
}

func TestRegisterCreatesUser(t *testing.T) {
	h := newUserHandler(t)

	body := map[string]string{"username": "test", "password": "test1", "name": "tester"}
	c, rec := newJSONContext(t, http.MethodPost, "/api/users", body)

	require.NoError(t, h.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "test", resp["username"])
	require.Equal(t, "tester", resp["name"])
	require.NotContains(t, resp, "passwordHash")
	require.NotContains(t, resp, "password_hash")

	var stored models.User
	require.NoError(t, h.DB.Where("username = ?", "test").First(&stored).Error)
	require.NotEmpty(t, stored.PasswordHash)
	require.NotEqual(t, "test1", stored.PasswordHash)
	require.Empty(t, stored.BlogIDs)
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	h := newUserHandler(t)

	for _, password := range []string{"", "ab"} {
		body := map[string]string{"username": "test_user", "password": password, "name": "tester"}
		c, _ := newJSONContext(t, http.MethodPost, "/api/users", body)

		err := h.Register(c)
		he := requireHTTPError(t, err, http.StatusBadRequest)
		require.Equal(t, "password too short", he.Message)
	}

	require.Equal(t, int64(0), userCount(t, h.DB))
}

func TestRegisterRejectsShortUsername(t *testing.T) {
	h := newUserHandler(t)

	body := map[string]string{"username": "ab", "password": "password", "name": "tester"}
	c, _ := newJSONContext(t, http.MethodPost, "/api/users", body)

	err := h.Register(c)
	he := requireHTTPError(t, err, http.StatusBadRequest)
	require.Contains(t, he.Message, "shorter than the minimum allowed length")
	require.Equal(t, int64(0), userCount(t, h.DB))
}

func TestRegisterRejectsDuplicateUsername(t *testing.T) {
	h := newUserHandler(t)
	createTestUser(t, h.DB, "test_user", "first", "password")

	body := map[string]string{"username": "test_user", "password": "password", "name": "second"}
	c, _ := newJSONContext(t, http.MethodPost, "/api/users", body)

	err := h.Register(c)
	he := requireHTTPError(t, err, http.StatusBadRequest)
	require.Equal(t, "username must be unique", he.Message)
	require.Equal(t, int64(1), userCount(t, h.DB))
}

func TestGetUsersResolvesBlogSummaries(t *testing.T) {
	h := newUserHandler(t)
	user := createTestUser(t, h.DB, "test_user", "tester", "password")

	blog := models.Blog{Title: "T", Author: "A", URL: "u", UserID: user.ID}
	require.NoError(t, h.DB.Create(&blog).Error)
	user.BlogIDs = append(user.BlogIDs, blog.ID)
	require.NoError(t, h.DB.Save(&user).Error)

	c, rec := newJSONContext(t, http.MethodGet, "/api/users", nil)
	require.NoError(t, h.GetUsers(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []struct {
		ID       uint   `json:"id"`
		Username string `json:"username"`
		Blogs    []struct {
			ID    uint   `json:"id"`
			Title string `json:"title"`
			URL   string `json:"url"`
		} `json:"blogs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	require.Len(t, resp[0].Blogs, 1)
	require.Equal(t, blog.ID, resp[0].Blogs[0].ID)
	require.Equal(t, "T", resp[0].Blogs[0].Title)
}
