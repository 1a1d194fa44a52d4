package main

import (
	"context"
	"fmt"
	"os"

	"github.com/nurpe/signmate-contracts/internal/auth"
	"github.com/nurpe/signmate-contracts/internal/cache"
	"github.com/nurpe/signmate-contracts/internal/config"
	"github.com/nurpe/signmate-contracts/internal/db"
	"github.com/nurpe/signmate-contracts/internal/excel"
	httphandler "github.com/nurpe/signmate-contracts/internal/http"
	"github.com/nurpe/signmate-contracts/internal/http/middleware"
	"github.com/nurpe/signmate-contracts/internal/logger"
	"github.com/nurpe/signmate-contracts/internal/pdf"
	"github.com/nurpe/signmate-contracts/internal/repository"
	"github.com/nurpe/signmate-contracts/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	contractCache := cache.New(context.Background(), cfg.Redis, log)
	defer contractCache.Close()

	contractRepo := repository.NewContractRepository(database)
	userRepo := repository.NewUserRepository(database)

	contractService := service.NewContractService(
		contractRepo,
		userRepo,
		contractCache,
		excel.NewGenerator(),
		pdf.NewGenerator(),
		cfg,
		log,
	)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	handler := httphandler.NewHandler(contractService, log)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg, log)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Msg("starting contracts service")

	if err := router.Run(addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
