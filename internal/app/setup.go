// Package app contains the application setup for the product service.
package app

import (
	"log/slog"
	"net/http"

	"github.com/avazquez/product-service/internal/config"
	"github.com/avazquez/product-service/internal/service"
	"github.com/avazquez/product-service/internal/store"
	"github.com/avazquez/product-service/internal/transport/rest"
	"github.com/avazquez/product-service/pkg/auth"
	"github.com/avazquez/product-service/pkg/messaging"
	"github.com/avazquez/product-service/pkg/server"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Dependencies struct {
	ProductService service.ProductService
	Verifier       auth.Verifier
	Logger         *slog.Logger
}

// SetupDependencies wires the store, service and event publisher.
// verifier may be nil when auth is disabled.
func SetupDependencies(dbPool *pgxpool.Pool, publisher messaging.Publisher, verifier auth.Verifier, logger *slog.Logger) *Dependencies {
	pService := service.NewService(store.NewPgStore(dbPool), publisher, logger)

	return &Dependencies{
		ProductService: pService,
		Verifier:       verifier,
		Logger:         logger,
	}
}

// SetupHttpHandler initializes the HTTP routes for the product service.
// Also used by tests to run the full handler stack without a listener.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	wireRoutes(mux, deps)
	return mux
}

// wireRoutes sets up the HTTP routes for the product service.
func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	adminOnly := rest.AllowAll()
	if deps.Verifier != nil {
		adminOnly = rest.RequireAdmin(deps.Verifier, deps.Logger)
	}
	productHandler := rest.NewHandler(deps.ProductService, deps.Logger)
	productHandler.RegisterRoutes(mux, adminOnly)
}

// SetupHttpServer creates and configures the HTTP server for the product service.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	mux := SetupHttpHandler(deps)

	httpCfg := server.HTTPConfig{
		Port:           cfg.HTTPServer.Port,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		ReadTimeout:    cfg.HTTPServer.Timeout.Read,
		WriteTimeout:   cfg.HTTPServer.Timeout.Write,
		IdleTimeout:    cfg.HTTPServer.Timeout.Idle,
		ReadHeader:     cfg.HTTPServer.Timeout.ReadHeader,
	}

	return server.NewHTTPServer(httpCfg, mux)
}
