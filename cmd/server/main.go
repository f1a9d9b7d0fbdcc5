package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/bloglist/internal/config"
	"github.com/Skotchmaster/bloglist/internal/es"
	"github.com/Skotchmaster/bloglist/internal/handlers"
	"github.com/Skotchmaster/bloglist/internal/httpserver"
	"github.com/Skotchmaster/bloglist/internal/logging"
	"github.com/Skotchmaster/bloglist/internal/middleware/auth"
	loggingmw "github.com/Skotchmaster/bloglist/internal/middleware/logging"
	"github.com/Skotchmaster/bloglist/internal/mykafka"
	"github.com/Skotchmaster/bloglist/internal/token"
)

const blogIndex = "blogs"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(cfg.LOG_LEVEL).With("service", "bloglist")
	slog.SetDefault(logger)

	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("db init: %v", err)
	}

	prod := mykafka.NewProducer([]string{cfg.KAFKA_ADDRESS})
	defer prod.Close()

	var esClient *elasticsearch.Client
	if cfg.ES_URL != "" {
		esClient, err = es.NewClient(cfg)
		if err != nil {
			log.Fatalf("es init: %v", err)
		}
	}

	tokens := &token.Service{Secret: []byte(cfg.JWT_SECRET)}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(loggingmw.RequestLogger(logger))

	deps := httpserver.Deps{
		BlogHandler:   &handlers.BlogHandler{DB: db, Producer: prod, ES: esClient, Index: blogIndex},
		UserHandler:   &handlers.UserHandler{DB: db, Producer: prod},
		LoginHandler:  &handlers.LoginHandler{DB: db, Tokens: tokens, Producer: prod},
		SearchHandler: &handlers.SearchHandler{ES: esClient, Index: blogIndex},
		Auth:          &auth.Middleware{Tokens: tokens},
	}
	httpserver.Register(e, &deps)

	port := cfg.SERVER_PORT
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("bloglist listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	log.Println("bloglist stopped")
}
