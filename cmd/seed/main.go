package main

import (
	"context"
	"fmt"
	"os"

	"homegoods/internal/config"
	"homegoods/internal/db"
	"homegoods/internal/logging"
	productrepo "homegoods/internal/repository/product"
	tokenrepo "homegoods/internal/repository/token"
	userrepo "homegoods/internal/repository/user"
	"homegoods/internal/seed"
	identitysvc "homegoods/internal/service/identity"
	productsvc "homegoods/internal/service/product"

	"go.uber.org/zap"
)

func main() {
	cfg := config.FromEnv()
	logger, err := logging.New("seed")
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	identity := identitysvc.New(userrepo.NewPostgres(pool, logger), tokenrepo.NewPostgres(pool), cfg.AccessTokenTTL, logger)
	products := productsvc.New(productrepo.NewPostgres(pool, logger), logger)

	if err := seed.Apply(ctx, identity, products, logger); err != nil {
		logger.Fatal("seed apply", zap.Error(err))
	}

	logger.Info("seed applied")
}
