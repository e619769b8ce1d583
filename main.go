package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/lxyzcm1/parking-manage-system/internal/api"
	"github.com/lxyzcm1/parking-manage-system/internal/api/handler"
	"github.com/lxyzcm1/parking-manage-system/internal/api/middleware"
	"github.com/lxyzcm1/parking-manage-system/internal/config"
	"github.com/lxyzcm1/parking-manage-system/internal/gate"
	"github.com/lxyzcm1/parking-manage-system/internal/repository"
	"github.com/lxyzcm1/parking-manage-system/internal/repository/memory"
	"github.com/lxyzcm1/parking-manage-system/internal/repository/postgresql"
	"github.com/lxyzcm1/parking-manage-system/internal/service"
)

func main() {
	cfg := config.Load()

	var (
		userRepo    repository.UserRepository
		lotRepo     repository.ParkingLotRepository
		sessionRepo repository.ParkingSessionRepository
	)

	switch cfg.Store {
	case "memory":
		log.Println("Using in-memory store; sessions will not survive restarts.")
		userRepo = memory.NewUserRepository()
		lotRepo = memory.NewParkingLotRepository()
		sessionRepo = memory.NewParkingSessionRepository(lotRepo)
	default:
		db, err := postgresql.NewDB(cfg)
		if err != nil {
			log.Fatalf("Could not connect to database: %v", err)
		}
		defer db.Close()
		log.Println("Database connection established.")

		userRepo = postgresql.NewPgUserRepository(db)
		lotRepo = postgresql.NewPgParkingLotRepository(db)
		sessionRepo = postgresql.NewPgParkingSessionRepository(db)
	}

	wsManager := handler.NewWebSocketManager()
	go wsManager.Start()

	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTExpiration)
	engine := service.NewParkingEngine(lotRepo, sessionRepo, wsManager)
	statsService := service.NewStatisticsService(lotRepo, sessionRepo)

	if err := engine.ReconcileOccupancy(context.Background()); err != nil {
		log.Fatalf("Could not reconcile occupancy counters: %v", err)
	}
	log.Println("Occupancy counters reconciled against open sessions.")

	var lprService *service.LPRService
	var sqsClient *sqs.Client
	if cfg.LPREnabled || cfg.SQSEventQueueURL != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			log.Fatalf("Could not load AWS SDK config: %v", err)
		}
		if cfg.LPREnabled {
			lprService = service.NewLPRService(rekognition.NewFromConfig(awsCfg))
			log.Println("LPR service initialized (Rekognition).")
		}
		if cfg.SQSEventQueueURL != "" {
			sqsClient = sqs.NewFromConfig(awsCfg)
		}
	}

	authMiddleware := middleware.NewAuthMiddleware(authService)

	var wg sync.WaitGroup
	consumerCtx, cancelConsumer := context.WithCancel(context.Background())
	defer cancelConsumer()

	if sqsClient != nil {
		consumer := gate.NewSQSConsumer(sqsClient, cfg, engine)
		wg.Add(1)
		go func() {
			defer wg.Done()
			consumer.Start(consumerCtx)
		}()
	} else {
		log.Println("SQS_EVENT_QUEUE_URL not configured; gate event consumer disabled.")
	}

	router := api.SetupRouter(authService, engine, statsService, lprService, authMiddleware, wsManager)

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		log.Printf("Server listening on port %s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")

	cancelConsumer()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Forced shutdown: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		wg.Wait()
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		log.Println("Gate event consumer did not stop in time.")
	}

	log.Println("Server stopped.")
}
