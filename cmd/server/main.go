// Package main initializes and starts the offer store server, setting up
// configuration, logging, the database connection, repositories, services and
// handlers.
package main

import (
	"cmp"
	"fmt"

	nethttp "net/http"

	"go.uber.org/zap"

	"github.com/offersync/offersync/internal/auth"
	"github.com/offersync/offersync/internal/config"
	"github.com/offersync/offersync/internal/db"
	"github.com/offersync/offersync/internal/logger"
	"github.com/offersync/offersync/internal/repository"
	"github.com/offersync/offersync/internal/server/handler/http"
	"github.com/offersync/offersync/internal/service"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Parse command-line and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	// Initialize PostgreSQL connection and schema.
	postgresDB, err := db.InitPostgres(options.DatabaseDSN)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}

	// Initialize the offer repository and service.
	offerRepo := repository.NewPostgresOfferRepository(postgresDB)
	offerService := service.NewOfferService(offerRepo)

	// Google token verification and OAuth code exchange.
	verifier := auth.NewGoogleVerifier(auth.GoogleTokeninfoURL)
	exchanger := auth.NewExchanger(options.GoogleClientID, options.GoogleClientSecret)
	if options.GoogleClientID == "" || options.GoogleClientSecret == "" {
		zapLogger.Warn("google oauth credentials not set, /api/auth/callback will fail")
	}

	// Create HTTP handlers for the offer and auth endpoints.
	offerHandler := &http.OfferHandler{Service: offerService}
	authHandler := &http.AuthHandler{Exchanger: exchanger}

	// Build the router with middleware and routes.
	router := http.NewRouter(offerHandler, authHandler, verifier, zapLogger)

	server := &nethttp.Server{
		Addr:    options.Address,
		Handler: router,
	}

	zapLogger.Info("starting HTTP server", zap.String("addr", options.Address))
	if err := server.ListenAndServe(); err != nil {
		zapLogger.Fatal("failed to start HTTP server", zap.Error(err))
	}
}
