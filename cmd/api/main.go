package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	appfraud "github.com/jaortiz16/Payment-Processor-sub000/internal/application/fraud"
	apptx "github.com/jaortiz16/Payment-Processor-sub000/internal/application/transaction"
	"github.com/jaortiz16/Payment-Processor-sub000/internal/domain/bank"
	"github.com/jaortiz16/Payment-Processor-sub000/internal/domain/commission"
	"github.com/jaortiz16/Payment-Processor-sub000/internal/domain/fraud"
	"github.com/jaortiz16/Payment-Processor-sub000/internal/domain/transaction"
	"github.com/jaortiz16/Payment-Processor-sub000/internal/infrastructure/cache/redis"
	"github.com/jaortiz16/Payment-Processor-sub000/internal/infrastructure/database/postgres"
	"github.com/jaortiz16/Payment-Processor-sub000/internal/infrastructure/gateway"
	"github.com/jaortiz16/Payment-Processor-sub000/internal/infrastructure/http/router"
	"github.com/jaortiz16/Payment-Processor-sub000/internal/infrastructure/memory"
	"github.com/jaortiz16/Payment-Processor-sub000/internal/infrastructure/rules"
	"github.com/jaortiz16/Payment-Processor-sub000/internal/interfaces/http/handler"
	"github.com/jaortiz16/Payment-Processor-sub000/internal/pkg/config"
	"github.com/jaortiz16/Payment-Processor-sub000/internal/pkg/logging"
	"github.com/jaortiz16/Payment-Processor-sub000/internal/pkg/metrics"
)

const version = "1.0.0"

func main() {
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Log)
	slog.SetDefault(logger)
	logger.Info("starting payment processor", "version", version,
		"addr", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port))

	collector := metrics.NewCollector()

	// Storage. When Postgres is unreachable (or standalone mode is forced)
	// the processor runs on in-memory repositories.
	var (
		txRepo      transaction.Repository
		historyRepo transaction.HistoryRepository
		bankRepo    bank.Repository
		commRepo    commission.Repository
		ruleRepo    fraud.RuleRepository
		alertRepo   fraud.AlertRepository

		dbClient *postgres.Client
	)
	if !cfg.Standalone {
		dbClient, err = postgres.NewClient(cfg.Database)
	}
	if cfg.Standalone || err != nil {
		if err != nil {
			logger.Warn("postgres unavailable, running standalone", "error", err.Error())
		} else {
			logger.Info("standalone mode, using in-memory storage")
		}
		memTx := memory.NewTransactionRepository()
		memBanks := memory.NewBankRepository()
		memComm := memory.NewCommissionRepository()
		txRepo, historyRepo = memTx, memTx
		bankRepo, commRepo = memBanks, memComm
		ruleRepo = memory.NewRuleRepository()
		alertRepo = memory.NewAlertRepository()
		seedStandalone(memBanks, memComm, ruleRepo, logger)
		dbClient = nil
	} else {
		logger.Info("connected to postgres", "host", cfg.Database.Host, "port", cfg.Database.Port)
		if err := dbClient.Migrate(); err != nil {
			logger.Error("schema migration failed", "error", err.Error())
			os.Exit(1)
		}
		pgTx := postgres.NewTransactionRepository(dbClient)
		txRepo, historyRepo = pgTx, pgTx
		bankRepo = postgres.NewBankRepository(dbClient)
		commRepo = postgres.NewCommissionRepository(dbClient)
		ruleRepo = postgres.NewRuleRepository(dbClient)
		alertRepo = postgres.NewAlertRepository(dbClient)
	}

	// Velocity cache. Window rules fall back to the transaction store when
	// Redis is missing.
	history := fraud.HistoryProvider(txRepo)
	var redisClient *redis.Client
	var velocity *redis.VelocityCache
	if !cfg.Standalone {
		redisClient, err = redis.NewClient(cfg.Redis)
		if err != nil {
			logger.Warn("redis unavailable, window checks use the store", "error", err.Error())
			redisClient = nil
		} else {
			logger.Info("connected to redis", "addr", cfg.Redis.Addr())
			velocity = redis.NewVelocityCache(redisClient, txRepo, logger)
			history = velocity
		}
	}

	bands := fraud.RiskBands{MediumFrom: cfg.Fraud.MediumFrom, HighFrom: cfg.Fraud.HighFrom}
	engine := rules.NewEngine(ruleRepo, alertRepo, history, bands,
		fraud.RiskLevel(cfg.Fraud.ActionThreshold), logger).
		WithCacheTTL(cfg.Fraud.RuleCacheTTL)

	resolver := commission.NewResolver(commRepo, logger)

	var authorizer apptx.Authorizer
	var decisions appfraud.DecisionClient
	if cfg.Standalone {
		authorizer = approveAllAuthorizer{}
		decisions = approveAllDecisions{}
	} else {
		authorizer = gateway.NewProcessorClient(cfg.Gateway, logger)
		decisions = gateway.NewFraudDecisionClient(cfg.Gateway, logger)
	}

	lifecycle := apptx.NewLifecycleManager(txRepo, bankRepo, resolver, engine, authorizer, logger, collector)
	if velocity != nil {
		lifecycle.WithVelocityRecorder(velocity)
	}
	queries := apptx.NewQueries(txRepo, historyRepo, bankRepo)
	monitor := appfraud.NewMonitor(alertRepo, ruleRepo, lifecycle, decisions, engine, logger)

	deps := map[string]handler.Pinger{}
	if dbClient != nil {
		deps["postgres"] = handler.PingerFunc(func(ctx context.Context) error { return dbClient.Ping() })
	}
	if redisClient != nil {
		deps["redis"] = redisClient
	}

	mux := router.New(router.Handlers{
		Transactions: handler.NewTransactionHandler(lifecycle, queries),
		Fraud:        handler.NewFraudHandler(monitor),
		Health:       handler.NewHealthHandler(deps),
	}, logger, collector)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("http server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err.Error())
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err.Error())
	}

	if dbClient != nil {
		_ = dbClient.Close()
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	logger.Info("stopped")
}

// seedStandalone loads a demo bank, its commission schedule and one
// velocity rule so the API is usable without a database.
func seedStandalone(banks *memory.BankRepository, comms *memory.CommissionRepository, ruleRepo fraud.RuleRepository, logger *slog.Logger) {
	ctx := context.Background()

	demoBank := &bank.Bank{
		ID:             uuid.New(),
		Code:           "DEMO01",
		CommercialName: "Banco Demo",
		Status:         bank.StatusActive,
	}
	if err := banks.Save(ctx, demoBank); err != nil {
		logger.Warn("seed bank failed", "error", err.Error())
	}

	schedule := &commission.Schedule{
		ID:              uuid.New(),
		BankID:          demoBank.ID,
		ManagesSegments: true,
		BaseAmount:      decimal.NewFromFloat(1.50),
		Active:          true,
	}
	schedule.Segments = []commission.Segment{
		{ID: uuid.New(), ScheduleID: schedule.ID, From: 0, To: 1000, Amount: decimal.NewFromFloat(1.50)},
		{ID: uuid.New(), ScheduleID: schedule.ID, From: 1000, To: 10000, Amount: decimal.NewFromFloat(1.00)},
		{ID: uuid.New(), ScheduleID: schedule.ID, From: 10000, To: 1000000, Amount: decimal.NewFromFloat(0.75)},
	}
	if err := comms.Save(ctx, schedule); err != nil {
		logger.Warn("seed schedule failed", "error", err.Error())
	}

	rule := fraud.NewRule("daily velocity", fraud.RuleTypeVelocity, 10, decimal.Zero,
		fraud.WindowDay, 50, fraud.RiskMedium, 1)
	if err := ruleRepo.Create(ctx, rule); err != nil {
		logger.Warn("seed rule failed", "error", err.Error())
	}

	logger.Info("seeded standalone data",
		"bank_id", demoBank.ID.String(), "schedule_id", schedule.ID.String())
}

// approveAllAuthorizer stands in for the card network in standalone mode.
type approveAllAuthorizer struct{}

func (approveAllAuthorizer) Authorize(ctx context.Context, req apptx.AuthorizationRequest) (*apptx.AuthorizationResult, error) {
	return &apptx.AuthorizationResult{
		Approved:          true,
		AuthorizationCode: fmt.Sprintf("STANDALONE-%d", time.Now().UnixNano()),
	}, nil
}

// approveAllDecisions stands in for the fraud-decision service in
// standalone mode.
type approveAllDecisions struct{}

func (approveAllDecisions) Decide(ctx context.Context, req appfraud.DecisionRequest) (*appfraud.DecisionResponse, error) {
	return &appfraud.DecisionResponse{
		Status: transaction.StatusApproved,
		Detail: "standalone auto-approval",
	}, nil
}
