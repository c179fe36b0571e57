package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"homegoods/internal/blob"
	"homegoods/internal/config"
	"homegoods/internal/db"
	"homegoods/internal/httpserver"
	"homegoods/internal/logging"
	"homegoods/internal/pricing"
	cartrepo "homegoods/internal/repository/cart"
	imagerepo "homegoods/internal/repository/image"
	orderrepo "homegoods/internal/repository/order"
	productrepo "homegoods/internal/repository/product"
	tokenrepo "homegoods/internal/repository/token"
	userrepo "homegoods/internal/repository/user"
	cartsvc "homegoods/internal/service/cart"
	identitysvc "homegoods/internal/service/identity"
	imagesvc "homegoods/internal/service/image"
	ordersvc "homegoods/internal/service/order"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg := config.FromEnv()
	logger, err := logging.New("api")
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal("connect to db", zap.Error(err))
	}
	defer dbpool.Close()

	blobs, err := blob.NewLocal(cfg.UploadDir, cfg.UploadURLPrefix, logger)
	if err != nil {
		logger.Fatal("init upload store", zap.Error(err))
	}

	calc := pricing.NewCalculator(cfg.Pricing)
	productRepo := productrepo.NewPostgres(dbpool, logger)
	imageRepo := imagerepo.NewPostgres(dbpool, logger)
	identityService := identitysvc.New(userrepo.NewPostgres(dbpool, logger), tokenrepo.NewPostgres(dbpool), cfg.AccessTokenTTL, logger)
	cartService := cartsvc.New(cartrepo.NewPostgres(dbpool), productRepo, imageRepo, calc, logger)
	orderService := ordersvc.New(orderrepo.NewPostgres(dbpool, logger), productRepo, calc, cfg.OrderNumberPrefix, logger)
	imageService := imagesvc.New(imageRepo, productRepo, blobs, imagesvc.Limits{
		MaxBytes: cfg.UploadMaxBytes,
		MaxBatch: cfg.UploadMaxBatch,
	}, logger)

	gin.SetMode(gin.ReleaseMode)
	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		IdentitySvc: identityService,
		CartSvc:     cartService,
		OrderSvc:    orderService,
		ImageSvc:    imageService,
	}, httpserver.Options{
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		UploadDir:          cfg.UploadDir,
		UploadURLPrefix:    cfg.UploadURLPrefix,
		UploadMaxBytes:     cfg.UploadMaxBytes,
		UploadMaxBatch:     cfg.UploadMaxBatch,
	})
	if err != nil {
		logger.Fatal("init server", zap.Error(err))
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting http server", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		logger.Error("server error", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	} else {
		logger.Info("server stopped")
	}
}
