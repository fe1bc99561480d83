package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/flowlogic-api/pkg/logger"
)

// RouterDeps dependencias para el router. Insight puede ser nil (sin proveedor LLM).
type RouterDeps struct {
	AuthUC      authService
	AlertUC     alertService
	Insight     insightService
	BillingUC   billingService
	DashboardUC dashboardService
	IngestionUC ingestionService
	ReportUC    reportService
	TrialGate   trialChecker
	JWTSecret   string
	Log         *logger.Logger
}

// Router registra las rutas de la API.
//
// Auth y billing quedan fuera del gate de prueba para que una empresa con la
// prueba vencida pueda iniciar sesión y pagar.
func Router(app *fiber.App, deps RouterDeps) {
	authMW := AuthMiddleware(deps.JWTSecret)

	// Billing: /billing/* y alias /api/billing/*
	billingHandler := NewBillingHandler(deps.BillingUC, deps.Log)
	for _, prefix := range []string{"/billing", "/api/billing"} {
		b := app.Group(prefix)
		b.Get("/plans", billingHandler.Plans)
		b.Post("/webhook", billingHandler.Webhook)
		b.Get("/subscription", authMW, billingHandler.Subscription)
		b.Get("/usage", authMW, billingHandler.Usage)
		b.Post("/checkout", authMW, billingHandler.Checkout)
		b.Post("/portal", authMW, billingHandler.Portal)
	}

	api := app.Group("/api")

	// Auth (público salvo /me)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)
	authGroup.Post("/signup-trial", authHandler.SignupTrial)
	authGroup.Get("/me", authMW, authHandler.Me)

	// Rutas protegidas: Bearer Token + gate de prueba
	protected := api.Group("/", authMW, TrialMiddleware(deps.TrialGate))

	// Alerts
	alertsGroup := protected.Group("/alerts")
	alertHandler := NewAlertHandler(deps.AlertUC, deps.Insight)
	alertsGroup.Get("/", alertHandler.List)
	alertsGroup.Post("/", alertHandler.Create)
	alertsGroup.Get("/summary", alertHandler.Summary)
	alertsGroup.Get("/unread", alertHandler.Unread)
	alertsGroup.Get("/critical", alertHandler.Critical)
	alertsGroup.Patch("/bulk-read", alertHandler.BulkRead)
	alertsGroup.Patch("/mark-all-read", alertHandler.MarkAllRead)
	alertsGroup.Delete("/cleanup", RequireRole("admin"), alertHandler.Cleanup)
	alertsGroup.Get("/:id", alertHandler.Get)
	alertsGroup.Patch("/:id/read", alertHandler.MarkRead)
	alertsGroup.Patch("/:id/resolve", alertHandler.Resolve)
	alertsGroup.Post("/:id/insight", alertHandler.Insight)

	// Dashboard
	dashboardHandler := NewDashboardHandler(deps.DashboardUC)
	protected.Get("/dashboard", dashboardHandler.Get)

	// Ingestion
	ingestionGroup := protected.Group("/ingestion")
	ingestionHandler := NewIngestionHandler(deps.IngestionUC)
	ingestionGroup.Post("/upload", RequireRole("admin", "manager"), ingestionHandler.Upload)
	ingestionGroup.Get("/history", ingestionHandler.History)
	ingestionGroup.Get("/mappings", ingestionHandler.Mappings)

	// Reports
	reportHandler := NewReportHandler(deps.ReportUC)
	protected.Get("/reports/alerts.pdf", reportHandler.AlertsPDF)
}
