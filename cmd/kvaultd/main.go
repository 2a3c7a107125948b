package main

import (
	"context"
	"flag"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/joseph-ayodele/knowledge-vault/internal/app"
	"github.com/joseph-ayodele/knowledge-vault/internal/async"
	"github.com/joseph-ayodele/knowledge-vault/internal/common"
	"github.com/joseph-ayodele/knowledge-vault/internal/ingest"
)

const healthInterval = 30 * time.Second

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (default $KVAULT_CONFIG)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := common.LoadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(common.ExitCode(err))
	}
	logger := common.NewLogger(cfg.Log, os.Stdout)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	vault, err := app.New(ctx, cfg, logger, app.Options{})
	if err != nil {
		logger.Error("failed to start vault", "error", err)
		os.Exit(common.ExitCode(err))
	}
	defer vault.Close()

	if err := vault.HealthCheck(ctx); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	queue := async.NewQueue(func(ctx context.Context, job async.Job) error {
		res, err := vault.Import.ImportPath(ctx, ingest.PathRequest{
			Path:         job.Path,
			AutoClassify: cfg.Classification.AutoClassify,
		})
		if err != nil {
			return err
		}
		for _, e := range res.Errors {
			logger.Warn("watch.import.error", "path", job.Path, "error", e)
		}
		return nil
	}, logger,
		async.WithWorkers(cfg.Import.Workers),
		async.WithQueueSize(cfg.Watch.QueueSize),
		async.WithProcessTimeout(cfg.Import.FileTimeout),
	)

	if len(cfg.Watch.Roots) > 0 {
		paths, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
			Roots:       cfg.Watch.Roots,
			InitialScan: cfg.Watch.InitialScan,
			Debounce:    cfg.Watch.Debounce,
			QueueSize:   cfg.Watch.QueueSize,
			Logger:      logger,
		})
		if err != nil {
			logger.Error("failed to start watcher", "error", err)
			os.Exit(common.ExitCode(err))
		}
		go feed(ctx, queue, paths, errs, logger)
	} else {
		logger.Info("watch mode disabled, no roots configured")
	}

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
		os.Exit(1)
	}
	grpcServer := grpc.NewServer()

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	go probe(ctx, vault, healthServer, logger)

	logger.Info("kvaultd listening", "addr", cfg.Server.GRPCAddr, "roots", len(cfg.Watch.Roots))
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			slog.Error("gRPC serve error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	healthServer.Shutdown()
	grpcServer.GracefulStop()
	queue.Shutdown(context.Background())
	logger.Info("kvaultd stopped")
}

// feed moves settled watcher paths onto the import queue until ctx ends.
func feed(ctx context.Context, q *async.Queue, paths <-chan string, errs <-chan error, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logger.Warn("watch.error", "error", err)
		case p, ok := <-paths:
			if !ok {
				return
			}
			job := async.Job{Path: p, SubmittedAt: time.Now(), TraceID: uuid.NewString()}
			if err := q.Enqueue(ctx, job); err != nil {
				logger.Warn("watch.enqueue.failed", "path", p, "error", err)
			}
		}
	}
}

// probe keeps the gRPC health status in line with the database.
func probe(ctx context.Context, vault *app.App, hs *health.Server, logger *slog.Logger) {
	t := time.NewTicker(healthInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			status := grpc_health_v1.HealthCheckResponse_SERVING
			if err := vault.HealthCheck(ctx); err != nil {
				logger.Warn("health.check.failed", "error", err)
				status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
			}
			hs.SetServingStatus("", status)
		}
	}
}
