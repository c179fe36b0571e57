package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"homegoods/internal/config"
	"homegoods/internal/db"
	"homegoods/internal/importer"
	"homegoods/internal/logging"
	imagerepo "homegoods/internal/repository/image"
	productrepo "homegoods/internal/repository/product"
	productsvc "homegoods/internal/service/product"

	"go.uber.org/zap"
)

func main() {
	var filePath string
	flag.StringVar(&filePath, "file", "", "Path to product CSV file")
	flag.Parse()

	if filePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.FromEnv()
	logger, err := logging.New("importer")
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

	f, err := os.Open(filePath)
	if err != nil {
		logger.Fatal("open file", zap.Error(err))
	}
	defer f.Close()

	products := productsvc.New(productrepo.NewPostgres(pool, logger), logger)
	imp := importer.NewCSVImporter(f, products, imagerepo.NewPostgres(pool, logger))

	start := time.Now()
	count, err := imp.Run(ctx)
	if err != nil {
		logger.Fatal("import failed", zap.Error(err))
	}

	logger.Info("import finished",
		zap.String("file", filePath),
		zap.Int("products", count),
		zap.Duration("took", time.Since(start).Truncate(time.Millisecond)),
	)
}
