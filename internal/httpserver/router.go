package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/bloglist/internal/handlers"
	"github.com/Skotchmaster/bloglist/internal/middleware/auth"
)

type Deps struct {
	BlogHandler   *handlers.BlogHandler
	UserHandler   *handlers.UserHandler
	LoginHandler  *handlers.LoginHandler
	SearchHandler *handlers.SearchHandler
	Auth          *auth.Middleware
}

func Register(e *echo.Echo, d *Deps) {
	e.HTTPErrorHandler = ErrorHandler

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	api := e.Group("/api")

	// The token extraction stage runs on every blog route, absence of a
	// token only matters on routes that also run ExtractPayload.
	blogs := api.Group("/blogs", d.Auth.ExtractToken)
	blogs.GET("", d.BlogHandler.GetBlogs)
	blogs.GET("/search", d.SearchHandler.Search)
	blogs.GET("/:id", d.BlogHandler.GetBlog)
	blogs.POST("", d.BlogHandler.CreateBlog, d.Auth.ExtractPayload, d.Auth.ExtractUsername)
	blogs.PUT("/:id", d.BlogHandler.UpdateBlog, auth.ValidateID)
	blogs.DELETE("/:id", d.BlogHandler.DeleteBlog, d.Auth.ExtractPayload, d.Auth.ExtractUsername, auth.ValidateID)

	api.POST("/users", d.UserHandler.Register)
	api.GET("/users", d.UserHandler.GetUsers)

	api.POST("/login", d.LoginHandler.Login)

	e.RouteNotFound("/*", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "unknown endpoint")
	})
}
