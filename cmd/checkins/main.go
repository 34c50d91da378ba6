// Job - QR scans from the kiosk queue
// Every decoded scan gets a result message on the result queue
package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	app "github.com/BANSEOKCHA/my-yks-app/internal/app"
	config "github.com/BANSEOKCHA/my-yks-app/internal/config"
	rabbit "github.com/BANSEOKCHA/my-yks-app/internal/external/rabbitmq"
	service "github.com/BANSEOKCHA/my-yks-app/internal/services"
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

	// rabbitmq
	reader, err := rabbit.NewRabbitConsumer(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue, cfg.RabbitMQ.ResultQueue)
	if err != nil {
		logger.Fatal("rabbitmq", zap.Error(err))
	}
	defer reader.Close()

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

	// workers
	count := cfg.RabbitMQ.Workers
	wg := &sync.WaitGroup{}
	wg.Add(count)
	for range count {
		go worker(ctx, a.Community, wg, logger, reader)
	}
	wg.Wait()
}

// worker for rabbitmq messages
func worker(ctx context.Context, serv *service.CommunityService, wg *sync.WaitGroup, logger *zap.Logger, reader *rabbit.RabbitConsumer) {
	defer wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-reader.Msg:
			if !ok {
				return
			}
			result, err := serv.CheckInMessage(ctx, msg.Body)
			if err != nil {
				logger.Error("checkin message", zap.Error(err))
				if result.CheckinID == "" {
					continue
				}
			}
			err = reader.Processed(ctx, result)
			if err != nil {
				logger.Error("checkin result", zap.Error(err))
			}
		}
	}
}
