package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/bloglist/internal/middleware/auth"
	"github.com/Skotchmaster/bloglist/internal/models"
	"github.com/Skotchmaster/bloglist/internal/mykafka"
	"github.com/Skotchmaster/bloglist/internal/service/search"
)

type BlogHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
	ES       *elasticsearch.Client
	Index    string
}

type userSummary struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

type blogResponse struct {
	ID     uint         `json:"id"`
	Title  string       `json:"title"`
	Author string       `json:"author"`
	URL    string       `json:"url"`
	Likes  int          `json:"likes"`
	User   *userSummary `json:"user"`
}

func (h *BlogHandler) publish(c echo.Context, event map[string]interface{}) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "blog_events", fmt.Sprint(event["blogID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func (h *BlogHandler) indexBlog(c echo.Context, blog models.Blog) {
	if h.ES == nil {
		return
	}
	if err := search.IndexBlog(c.Request().Context(), h.ES, h.Index, blog); err != nil {
		c.Logger().Errorf("ES index error: %v", err)
	}
}

func (h *BlogHandler) unindexBlog(c echo.Context, id uint) {
	if h.ES == nil {
		return
	}
	if err := search.DeleteBlog(c.Request().Context(), h.ES, h.Index, id); err != nil {
		c.Logger().Errorf("ES delete error: %v", err)
	}
}

// GetBlogs lists every blog with the owning user resolved to a short
// summary. No auth required.
func (h *BlogHandler) GetBlogs(c echo.Context) error {
	var blogs []models.Blog
	if err := h.DB.Order("id ASC").Find(&blogs).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	ownerIDs := make([]uint, 0, len(blogs))
	seen := make(map[uint]bool)
	for _, b := range blogs {
		if b.UserID != 0 && !seen[b.UserID] {
			seen[b.UserID] = true
			ownerIDs = append(ownerIDs, b.UserID)
		}
	}

	owners := make(map[uint]models.User, len(ownerIDs))
	if len(ownerIDs) > 0 {
		var users []models.User
		if err := h.DB.Where("id IN ?", ownerIDs).Find(&users).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		for _, u := range users {
			owners[u.ID] = u
		}
	}

	resp := make([]blogResponse, 0, len(blogs))
	for _, b := range blogs {
		item := blogResponse{
			ID:     b.ID,
			Title:  b.Title,
			Author: b.Author,
			URL:    b.URL,
			Likes:  b.Likes,
		}
		if owner, ok := owners[b.UserID]; ok {
			item.User = &userSummary{ID: owner.ID, Username: owner.Username, Name: owner.Name}
		}
		resp = append(resp, item)
	}

	return c.JSON(http.StatusOK, resp)
}

// GetBlog returns one blog by id. The id is parsed here rather than
// pre-validated, a non-numeric id surfaces as 400 straight from the
// parse.
func (h *BlogHandler) GetBlog(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformatted id")
	}

	var blog models.Blog
	if err := h.DB.First(&blog, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "blog not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, blog)
}

// CreateBlog persists a new blog owned by the authenticated user, then
// appends the blog id to that user's list. The two writes are not
// atomic: if the second fails the blog stays behind unreferenced. That
// trade-off is accepted, there is no compensating rollback.
func (h *BlogHandler) CreateBlog(c echo.Context) error {
	payload, ok := auth.PayloadFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	var req struct {
		Title  string `json:"title"`
		Author string `json:"author"`
		URL    string `json:"url"`
		Likes  *int   `json:"likes"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if req.Title == "" || req.URL == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title and url are required")
	}

	var user models.User
	if err := h.DB.First(&user, payload.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	likes := 0
	if req.Likes != nil {
		likes = *req.Likes
	}

	blog := models.Blog{
		Title:  req.Title,
		Author: req.Author,
		URL:    req.URL,
		Likes:  likes,
		UserID: user.ID,
	}
	if err := h.DB.Create(&blog).Error; err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user.BlogIDs = append(user.BlogIDs, blog.ID)
	if err := h.DB.Save(&user).Error; err != nil {
		// The blog is already persisted, so this leaves it out of the
		// owner's list.
		c.Logger().Errorf("blog %d created but user %d not updated: %v", blog.ID, user.ID, err)
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.publish(c, map[string]interface{}{
		"type":   "blog_created",
		"blogID": blog.ID,
		"userID": user.ID,
		"title":  blog.Title,
	})
	h.indexBlog(c, blog)

	return c.JSON(http.StatusCreated, blog)
}

// UpdateBlog replaces title/author/url/likes wholesale. It requires a
// well-formed id but intentionally no token: any caller may update any
// blog.
func (h *BlogHandler) UpdateBlog(c echo.Context) error {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)

	var req struct {
		Title  string `json:"title"`
		Author string `json:"author"`
		URL    string `json:"url"`
		Likes  int    `json:"likes"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var blog models.Blog
	if err := h.DB.First(&blog, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "blog not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	blog.Title = req.Title
	blog.Author = req.Author
	blog.URL = req.URL
	blog.Likes = req.Likes

	if err := h.DB.Save(&blog).Error; err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	h.publish(c, map[string]interface{}{
		"type":   "blog_updated",
		"blogID": blog.ID,
		"title":  blog.Title,
	})
	h.indexBlog(c, blog)

	return c.JSON(http.StatusCreated, blog)
}

// DeleteBlog removes a blog, owner only. The owner's list is repaired
// before the blog row goes away so the back-reference never dangles.
func (h *BlogHandler) DeleteBlog(c echo.Context) error {
	payload, ok := auth.PayloadFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)

	var blog models.Blog
	if err := h.DB.First(&blog, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "blog not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if blog.UserID != payload.ID {
		return echo.NewHTTPError(http.StatusUnauthorized, "only the owner can delete a blog")
	}

	var owner models.User
	if err := h.DB.First(&owner, blog.UserID).Error; err == nil {
		kept := owner.BlogIDs[:0]
		for _, bid := range owner.BlogIDs {
			if bid != blog.ID {
				kept = append(kept, bid)
			}
		}
		owner.BlogIDs = kept
		if err := h.DB.Save(&owner).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := h.DB.Delete(&models.Blog{}, blog.ID).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.publish(c, map[string]interface{}{
		"type":   "blog_deleted",
		"blogID": blog.ID,
		"userID": payload.ID,
	})
	h.unindexBlog(c, blog.ID)

	return c.NoContent(http.StatusNoContent)
}
