package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/flowlogic-api/docs"
	"github.com/jhoicas/flowlogic-api/internal/application/alerts"
	"github.com/jhoicas/flowlogic-api/internal/application/analytics"
	"github.com/jhoicas/flowlogic-api/internal/application/auth"
	"github.com/jhoicas/flowlogic-api/internal/application/billing"
	"github.com/jhoicas/flowlogic-api/internal/application/ingestion"
	"github.com/jhoicas/flowlogic-api/internal/application/ports"
	"github.com/jhoicas/flowlogic-api/internal/application/reports"
	"github.com/jhoicas/flowlogic-api/internal/application/trial"
	"github.com/jhoicas/flowlogic-api/internal/domain/alerting"
	infraai "github.com/jhoicas/flowlogic-api/internal/infrastructure/ai"
	infrakafka "github.com/jhoicas/flowlogic-api/internal/infrastructure/kafka"
	inframetrics "github.com/jhoicas/flowlogic-api/internal/infrastructure/metrics"
	"github.com/jhoicas/flowlogic-api/internal/infrastructure/ofbiz"
	infrapdf "github.com/jhoicas/flowlogic-api/internal/infrastructure/pdf"
	"github.com/jhoicas/flowlogic-api/internal/infrastructure/postgres"
	infrastripe "github.com/jhoicas/flowlogic-api/internal/infrastructure/stripe"
	httpRouter "github.com/jhoicas/flowlogic-api/internal/interfaces/http"
	"github.com/jhoicas/flowlogic-api/pkg/config"
	"github.com/jhoicas/flowlogic-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool, log); err != nil {
		log.Fatal().Err(err).Msg("migraciones")
	}

	companyRepo := postgres.NewCompanyRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	alertRepo := postgres.NewAlertRepository(pool)
	ingestionRepo := postgres.NewIngestionRepository(pool)
	settingRepo := postgres.NewSettingRepository(pool)
	analyticsRepo := postgres.NewAnalyticsRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	recorder, err := inframetrics.New(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatal().Err(err).Msg("registro de métricas")
	}

	// Kafka es opcional: sin brokers los eventos de alertas no se publican.
	var publisher ports.AlertPublisher = ports.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = infrakafka.NewAlertPublisher(cfg.Kafka.Brokers, cfg.Kafka.AlertsTopic)
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.AlertsTopic).Msg("publicación de alertas en Kafka habilitada")
	}

	evaluator := alerting.NewEvaluator(cfg.Alerts.Thresholds)
	importUC := ingestion.NewImportUseCase(
		txRunner, ingestionRepo, ofbiz.NewDecoder(), evaluator,
		publisher, recorder, cfg.Alerts.Dedupe, log,
	)
	alertUC := alerts.NewUseCase(alertRepo, publisher, recorder, log)
	dashboardUC := analytics.NewDashboardUseCase(analyticsRepo, alertRepo, ingestionRepo)
	reportUC := reports.NewUseCase(alertRepo, companyRepo, analyticsRepo, infrapdf.NewMarotoPDFGenerator(cfg.App.BaseURL))
	trialGate := trial.NewGate(settingRepo, log)

	stripeProvider := infrastripe.NewProvider(infrastripe.Config{
		SecretKey:     cfg.Stripe.SecretKey,
		WebhookSecret: cfg.Stripe.WebhookSecret,
		Breaker: infrastripe.BreakerConfig{
			FailureThreshold: cfg.Stripe.BreakerFailureThresh,
			Timeout:          cfg.Stripe.BreakerTimeout,
		},
	}, log)
	billingUC := billing.NewUseCase(
		txRunner, settingRepo, companyRepo, userRepo, analyticsRepo, stripeProvider,
		billing.Config{
			Prices: billing.PriceIDs{
				Starter:      cfg.Stripe.StarterPriceID,
				Professional: cfg.Stripe.ProfessionalPriceID,
				Enterprise:   cfg.Stripe.EnterprisePriceID,
			},
			BaseURL:   cfg.App.BaseURL,
			TrialDays: cfg.Billing.TrialDays,
		}, log,
	)

	authUC := auth.NewAuthUseCase(userRepo, companyRepo, txRunner, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	}, cfg.Billing.TrialDays, log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  time.Second * 60,
		BodyLimit:    cfg.HTTP.BodyLimitMB * 1024 * 1024,
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestLogger(log, recorder))

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath:    "/",
		FileContent: []byte(docs.SwaggerInfo.ReadDoc()),
		Path:        "docs",
		Title:       "FlowLogic API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	deps := httpRouter.RouterDeps{
		AuthUC:      authUC,
		AlertUC:     alertUC,
		BillingUC:   billingUC,
		DashboardUC: dashboardUC,
		IngestionUC: importUC,
		ReportUC:    reportUC,
		TrialGate:   trialGate,
		JWTSecret:   cfg.JWT.Secret,
		Log:         log,
	}
	anthropic := infraai.NewAnthropicService(cfg.AI.AnthropicAPIKey, cfg.AI.AnthropicModel)
	if anthropic.Enabled() {
		deps.Insight = alerts.NewInsightUseCase(alertRepo, anthropic, log)
	} else {
		log.Warn().Msg("ANTHROPIC_API_KEY vacío: sugerencias IA deshabilitadas")
	}
	httpRouter.Router(app, deps)

	if cfg.Ingestion.InboxDir != "" {
		if cfg.Ingestion.CompanyID == "" {
			log.Fatal().Msg("INGESTION_INBOX_DIR requiere INGESTION_COMPANY_ID")
		}
		poller := ingestion.NewPoller(ingestion.PollerConfig{
			InboxDir:  cfg.Ingestion.InboxDir,
			Interval:  cfg.Ingestion.PollInterval,
			CompanyID: cfg.Ingestion.CompanyID,
			SourceKey: cfg.Ingestion.SourceKey,
		}, importUC, log)
		go poller.Run(ctx)
	}

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	if err := publisher.Close(); err != nil {
		log.Error().Err(err).Msg("cierre del publicador de alertas")
	}

	log.Info().Msg("aplicación detenida")
}
