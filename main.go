package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/mbolis/cart-survey/app"
	"github.com/mbolis/cart-survey/config"
	"github.com/mbolis/cart-survey/database"
	"github.com/mbolis/cart-survey/log"
	"github.com/mbolis/cart-survey/model"
	"github.com/mbolis/cart-survey/routes"
	"github.com/mbolis/cart-survey/shopify"
	"github.com/mbolis/cart-survey/store"
)

func main() {
	cfg, err := config.ParseFlags()
	if err != nil {
		log.Fatal("main.config:", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	survey, err := model.LoadSurvey(cfg.SchemaPath)
	if err != nil {
		log.Fatal("main.schema:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	responses, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal("main.db.open:", err)
	}
	defer closeStore()

	app := app.App{
		Responses:  responses,
		Survey:     survey,
		ScriptTags: shopify.NewClient(cfg.ShopifyAPIVersion),
		Config:     cfg,
	}

	handler := routes.Wire(app)

	err = runServer(ctx, cfg, handler)
	if err != nil {
		log.Fatal("main.server:", err)
	}
}

func openStore(ctx context.Context, cfg config.Config) (store.Responses, func(), error) {
	switch cfg.DBDriver {
	case config.DriverMongo:
		client, err := database.OpenMongo(ctx, cfg.DBUrl)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := client.Disconnect(context.Background()); err != nil {
				log.Warn("main.db.close:", err)
			}
		}
		return store.NewMongoResponses(client.Database(cfg.DBName)), closeFn, nil

	default:
		db, err := database.OpenSQLite(cfg.DBUrl)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := db.Close(); err != nil {
				log.Warn("main.db.close:", err)
			}
		}
		return store.NewSQLiteResponses(db), closeFn, nil
	}
}

func runServer(ctx context.Context, cfg config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Info("Listening on " + cfg.Url())
	return serve(ctx, srv, srv.ListenAndServe)
}

const shutdownTimeout = 10 * time.Second

// serve runs listen until ctx is cancelled, then returns only once
// in-flight requests have drained or shutdownTimeout has passed.
func serve(ctx context.Context, srv *http.Server, listen func() error) error {
	drained := make(chan error, 1)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		drained <- srv.Shutdown(shutdownCtx)
	}()

	err := listen()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-drained
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}
