package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"attendance.service/internal/config"
	"attendance.service/internal/core"
	"attendance.service/internal/ports/messaging"
	"attendance.service/internal/ports/repository"
	"attendance.service/internal/worker"
	"attendance.service/internal/worker/legacyapi"
	"attendance.service/internal/worker/payroll"
	"attendance.service/pkg/aws"
	"attendance.service/pkg/database"
	"attendance.service/pkg/logger"
	"attendance.service/pkg/telemetry"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Could not load configuration")
	}

	logger.Setup(cfg.IsLocalDev)

	shutdownTracer, err := telemetry.InitTracer("attendance-payroll-worker", cfg.OTelEndpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to init tracer")
	}
	defer func() {
		_ = shutdownTracer(context.Background())
	}()

	db, err := database.NewInstrumentedConnection(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening database")
	}
	defer db.Close()
	log.Info().Msg("Successfully connected to the database.")

	awsCfg, err := aws.NewAWSConfig(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("unable to load SDK config")
	}

	sqsClient := aws.NewSQSClient(awsCfg, cfg)
	producer := messaging.NewSQSProducer(sqsClient, cfg.ImportSQSQueueURL, cfg.PayrollSQSQueueURL)
	attendanceService := core.NewAttendanceService(repository.NewPostgresRepositories(db), producer, cfg.GridConcurrency)

	payrollClient := legacyapi.NewHTTPClient(cfg.LegacyPayrollURL)
	processor := payroll.NewProcessor(attendanceService, payrollClient)
	app := worker.NewWorker(sqsClient, cfg.PayrollSQSQueueURL, processor, cfg.WorkerConcurrency)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app.Start(ctx)
	log.Info().Msg("Worker exited gracefully")
}
