package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/bloglist/internal/hash"
	"github.com/Skotchmaster/bloglist/internal/models"
	"github.com/Skotchmaster/bloglist/internal/mykafka"
)

const minCredentialLength = 3

type UserHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
}

type blogSummary struct {
	ID     uint   `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
	URL    string `json:"url"`
}

type userResponse struct {
	ID       uint          `json:"id"`
	Username string        `json:"username"`
	Name     string        `json:"name"`
	Blogs    []blogSummary `json:"blogs"`
}

// Register creates a user. The password is validated here because only
// its hash ever reaches the store, the store cannot check length.
func (h *UserHandler) Register(c echo.Context) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if len(req.Password) < minCredentialLength {
		return echo.NewHTTPError(http.StatusBadRequest, "password too short")
	}
	if len(req.Username) < minCredentialLength {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf(
			"username `%s` is shorter than the minimum allowed length (%d)",
			req.Username, minCredentialLength,
		))
	}

	var existing models.User
	err := h.DB.Where("username = ?", req.Username).First(&existing).Error
	if err == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "username must be unique")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	passwordHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	user := models.User{
		Username:     req.Username,
		PasswordHash: passwordHash,
		Name:         req.Name,
		BlogIDs:      []uint{},
	}
	if err := h.DB.Create(&user).Error; err != nil {
		// The unique index is the backstop for the race between the
		// existence check and the insert.
		return echo.NewHTTPError(http.StatusBadRequest, "username must be unique")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	event := map[string]interface{}{
		"type":     "user_registered",
		"userID":   user.ID,
		"username": user.Username,
	}
	if err := h.Producer.PublishEvent(ctx, "user_events", fmt.Sprint(user.ID), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}

	return c.JSON(http.StatusCreated, user)
}

// GetUsers lists every user with the owned blog ids resolved to blog
// summaries.
func (h *UserHandler) GetUsers(c echo.Context) error {
	var users []models.User
	if err := h.DB.Order("id ASC").Find(&users).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var allIDs []uint
	for _, u := range users {
		allIDs = append(allIDs, u.BlogIDs...)
	}

	blogsByID := make(map[uint]models.Blog, len(allIDs))
	if len(allIDs) > 0 {
		var blogs []models.Blog
		if err := h.DB.Where("id IN ?", allIDs).Find(&blogs).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		for _, b := range blogs {
			blogsByID[b.ID] = b
		}
	}

	resp := make([]userResponse, 0, len(users))
	for _, u := range users {
		item := userResponse{
			ID:       u.ID,
			Username: u.Username,
			Name:     u.Name,
			Blogs:    []blogSummary{},
		}
		for _, bid := range u.BlogIDs {
			if b, ok := blogsByID[bid]; ok {
				item.Blogs = append(item.Blogs, blogSummary{
					ID:     b.ID,
					Title:  b.Title,
					Author: b.Author,
					URL:    b.URL,
				})
			}
		}
		resp = append(resp, item)
	}

	return c.JSON(http.StatusOK, resp)
}
