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

	"github.com/vogiaan1904/ticketbottle-booking/config"
	"github.com/vogiaan1904/ticketbottle-booking/internal/clock"
	grpcSvc "github.com/vogiaan1904/ticketbottle-booking/internal/delivery/grpc"
	httpSvc "github.com/vogiaan1904/ticketbottle-booking/internal/delivery/http"
	"github.com/vogiaan1904/ticketbottle-booking/internal/delivery/kafka/consumer"
	"github.com/vogiaan1904/ticketbottle-booking/internal/delivery/kafka/producer"
	"github.com/vogiaan1904/ticketbottle-booking/internal/infra/postgres"
	"github.com/vogiaan1904/ticketbottle-booking/internal/infra/redis"
	"github.com/vogiaan1904/ticketbottle-booking/internal/metrics"
	"github.com/vogiaan1904/ticketbottle-booking/internal/repository"
	"github.com/vogiaan1904/ticketbottle-booking/internal/repository/memory"
	pgRepo "github.com/vogiaan1904/ticketbottle-booking/internal/repository/postgres"
	redisRepo "github.com/vogiaan1904/ticketbottle-booking/internal/repository/redis"
	"github.com/vogiaan1904/ticketbottle-booking/internal/service"
	pkgKafka "github.com/vogiaan1904/ticketbottle-booking/pkg/kafka"
	pkgLog "github.com/vogiaan1904/ticketbottle-booking/pkg/logger"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	l := pkgLog.InitializeZapLogger(pkgLog.ZapConfig{
		Level:    cfg.Log.Level,
		Mode:     cfg.Log.Mode,
		Encoding: cfg.Log.Encoding,
	})

	clk := clock.Real{}
	m := metrics.New()

	// Queue, lock and notifier state
	var (
		qRepo    repository.QueueRepository
		lockRepo repository.LockRepository
		notifier repository.Notifier
	)
	switch cfg.Store.QueueBackend {
	case config.BackendRedis:
		redisCli, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			l.Fatalf(ctx, "Failed to connect to Redis: %v", err)
		}
		defer redis.Disconnect(redisCli)

		qRepo = redisRepo.NewRedisQueueRepository(redisCli, cfg.Queue.Pool, clk, l)
		lockRepo = redisRepo.NewRedisLockRepository(redisCli, l)
		notifier = redisRepo.NewRedisNotifier(redisCli, cfg.Queue.Pool, l)
	default:
		l.Warn(ctx, "Using in-process queue store; state is not shared between instances")
		qRepo = memory.NewQueueRepository(clk)
		lockRepo = memory.NewLockRepository(clk)
		notifier = memory.NewNotifier()
	}

	// Seats and bookings
	var (
		seatRepo    repository.SeatRepository
		bookingRepo repository.BookingRepository
	)
	switch cfg.Store.DBBackend {
	case config.BackendPostgres:
		pool, err := postgres.Connect(ctx, cfg.Postgres)
		if err != nil {
			l.Fatalf(ctx, "Failed to connect to Postgres: %v", err)
		}
		defer postgres.Disconnect(pool)

		if cfg.Postgres.AutoMigrate {
			if err := postgres.Migrate(ctx, pool); err != nil {
				l.Fatalf(ctx, "Failed to migrate Postgres: %v", err)
			}
		}

		seatRepo = pgRepo.NewSeatRepository(pool, l)
		bookingRepo = pgRepo.NewBookingRepository(pool, l)
	default:
		store := memory.NewStore(clk)
		seatRepo = store.Seats()
		bookingRepo = store.Bookings()
	}

	if len(cfg.Store.SeedSeats) > 0 {
		n, err := seatRepo.Seed(ctx, cfg.Store.SeedSeats)
		if err != nil {
			l.Fatalf(ctx, "Failed to seed seats: %v", err)
		}
		l.Info(ctx, "Seats seeded", "inserted", n, "requested", len(cfg.Store.SeedSeats))
	}

	// Kafka is optional; without it no events are published
	var prod producer.Producer
	if cfg.Kafka.Enabled {
		kSyncProd, err := pkgKafka.NewProducer(pkgKafka.ProducerConfig{
			Brokers:      cfg.Kafka.Brokers,
			RetryMax:     cfg.Kafka.ProducerRetryMax,
			RequiredAcks: cfg.Kafka.ProducerRequiredAcks,
			ClientID:     "booking-service",
		})
		if err != nil {
			l.Fatalf(ctx, "Failed to initialize Kafka producer: %v", err)
		}
		prod = producer.NewProducer(kSyncProd, l)
		defer prod.Close()
	}

	// Initialize services
	qSvc := service.NewQueueService(qRepo, notifier, prod, m, clk, cfg.Queue, l)
	lockSvc := service.NewLockService(lockRepo, m, l)
	payment := service.NewMockPaymentGateway(cfg.Payment, l)
	bookingSvc := service.NewBookingService(qSvc, lockSvc, payment, seatRepo, bookingRepo, prod, m, clk, cfg.Booking, l)
	processor := service.NewQueueProcessor(qSvc, m, l, cfg.Queue, cfg.Server.ShutdownTimeout)

	if cfg.Kafka.Enabled {
		kConsGr, err := pkgKafka.NewConsumer(pkgKafka.ConsumerConfig{
			Brokers:  cfg.Kafka.Brokers,
			GroupID:  cfg.Kafka.ConsumerGroupID,
			ClientID: "booking-service",
		})
		if err != nil {
			l.Fatalf(ctx, "Failed to initialize Kafka consumer: %v", err)
		}
		cons := consumer.NewConsumer(kConsGr, qSvc, l)
		if err := cons.Start(ctx); err != nil {
			l.Fatalf(ctx, "Failed to start Kafka consumer: %v", err)
		}
		defer cons.Close()
	}

	if err := processor.Start(ctx); err != nil {
		l.Fatalf(ctx, "Failed to start queue processor: %v", err)
	}

	// HTTP server
	h := httpSvc.NewHTTPHandler(qSvc, bookingSvc, processor, l)
	httpSrv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:      httpSvc.NewRouter(ctx, h, m, cfg.RateLimit, l),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// gRPC server
	lnr, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Server.GRpcPort))
	if err != nil {
		l.Fatalf(ctx, "gRPC server failed to listen: %v", err)
	}

	gRpcSrv := grpc.NewServer(grpc.UnaryInterceptor(grpcSvc.LoggingInterceptor(l)))
	grpcSvc.RegisterBookingServiceServer(gRpcSrv, grpcSvc.NewGrpcService(qSvc, bookingSvc, processor, l))
	healthSrv := health.NewServer()
	healthSrv.SetServingStatus(grpcSvc.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(gRpcSrv, healthSrv)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		l.Infof(gCtx, "HTTP server is listening on port: %d", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		l.Infof(gCtx, "gRPC server is listening on port: %d", cfg.Server.GRpcPort)
		if err := gRpcSrv.Serve(lnr); err != nil {
			return fmt.Errorf("grpc server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		l.Info(context.Background(), "Server shutting down...")

		healthSrv.Shutdown()

		if err := processor.Stop(); err != nil {
			l.Errorf(context.Background(), "Failed to stop queue processor: %v", err)
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			l.Errorf(shutdownCtx, "HTTP server shutdown: %v", err)
		}

		gRpcSrv.GracefulStop()
		return nil
	})

	if err := g.Wait(); err != nil {
		l.Errorf(context.Background(), "Server exited with error: %v", err)
		return
	}

	l.Info(context.Background(), "Server exited")
}
