// Job - mission posts from Kafka
// Each message is stored as a post and runs the daily post bonus
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"

	app "github.com/BANSEOKCHA/my-yks-app/internal/app"
	config "github.com/BANSEOKCHA/my-yks-app/internal/config"
	kafka "github.com/BANSEOKCHA/my-yks-app/internal/external/kafka"
	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()
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

	// kafka
	reader, err := kafka.GetNewReader(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID)
	if err != nil {
		logger.Fatal("kafka", zap.Error(err))
	}
	defer reader.CloseReader()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("init", zap.Error(err))
	}
	defer a.Close(context.Background())

	// os signals
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-interrupt
		cancel()
	}()

	semcount := cfg.Kafka.Workers
	wg := &sync.WaitGroup{}
	semaphore := make(chan struct{}, semcount)

	for {
		body, err := reader.GetNewMessage(ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				logger.Error("kafka read", zap.Error(err))
			}
			break
		}

		semaphore <- struct{}{}
		wg.Add(1)
		go func(body []byte) {
			defer wg.Done()
			defer func() { <-semaphore }()
			outcome, err := a.Community.SubmitPostMessage(ctx, body)
			if err != nil {
				logger.Error("post message", zap.Error(err))
				return
			}
			logger.Debug("post processed",
				zap.Bool("granted", outcome.Granted),
				zap.String("rejection", string(outcome.Rejection)),
			)
		}(body)
	}
	wg.Wait()
}
