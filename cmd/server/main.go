// HTTP + gRPC server with the periodic leaderboard rebuild
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	api "github.com/BANSEOKCHA/my-yks-app/internal/api"
	grpcapi "github.com/BANSEOKCHA/my-yks-app/internal/api/grpc"
	app "github.com/BANSEOKCHA/my-yks-app/internal/app"
	config "github.com/BANSEOKCHA/my-yks-app/internal/config"
	"github.com/go-co-op/gocron/v2"
	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	// .env is optional
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}

	// log
	logger, err := app.NewLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("init", zap.Error(err))
	}

	// leaderboard rebuild
	sched, err := gocron.NewScheduler()
	if err != nil {
		logger.Fatal("scheduler", zap.Error(err))
	}
	_, err = sched.NewJob(
		gocron.DurationJob(cfg.Leaderboard.RebuildInterval),
		gocron.NewTask(func() {
			err := a.Community.RebuildLeaderboard(ctx)
			if err != nil {
				logger.Error("leaderboard rebuild", zap.Error(err))
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		logger.Fatal("scheduler job", zap.Error(err))
	}
	sched.Start()

	// http
	handler := api.NewHandler(a.Community, logger, cfg.Leaderboard.Size)
	srv := &http.Server{
		Handler:      otelhttp.NewHandler(handler, "talent"),
		Addr:         fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
	}
	go func() {
		logger.Info("http listening", zap.String("addr", srv.Addr))
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	// grpc
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Server.GRPCPort))
	if err != nil {
		logger.Fatal("grpc listen", zap.Error(err))
	}
	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(grpcapi.LoggingInterceptor(logger)))
	grpcapi.RegisterTalentServer(grpcServer, grpcapi.NewTalentService(a.Community, logger))
	go func() {
		logger.Info("grpc listening", zap.String("addr", lis.Addr().String()))
		err := grpcServer.Serve(lis)
		if err != nil {
			logger.Fatal("grpc server failed", zap.Error(err))
		}
	}()

	// shutdown
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	<-interrupt
	cancel()

	timeout, stop := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer stop()
	err = srv.Shutdown(timeout)
	if err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
	grpcServer.GracefulStop()
	err = sched.Shutdown()
	if err != nil {
		logger.Error("scheduler shutdown", zap.Error(err))
	}
	err = a.Close(timeout)
	if err != nil {
		logger.Error("cleanup", zap.Error(err))
	}
}
