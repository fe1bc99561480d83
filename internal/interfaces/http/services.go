package http

import (
	"context"

	"github.com/jhoicas/flowlogic-api/internal/application/dto"
	"github.com/jhoicas/flowlogic-api/internal/application/ingestion"
	"github.com/jhoicas/flowlogic-api/internal/domain/entity"
)

// Contratos que consumen los handlers. Los implementan los casos de uso de
// internal/application; en tests se sustituyen por mocks.

type authService interface {
	RegisterUser(ctx context.Context, in dto.RegisterRequest) (*dto.UserResponse, error)
	Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error)
	Me(ctx context.Context, userID string) (*dto.UserResponse, error)
	SignupTrial(ctx context.Context, in dto.TrialSignupRequest) (*dto.TrialSignupResponse, error)
}

type alertService interface {
	List(ctx context.Context, companyID string, q dto.AlertListQuery) (*dto.AlertListResponse, error)
	Summary(ctx context.Context, companyID string) (*dto.AlertSummaryResponse, error)
	Unread(ctx context.Context, companyID, warehouseID string, limit int) ([]dto.AlertResponse, error)
	Critical(ctx context.Context, companyID, warehouseID string) ([]dto.AlertResponse, error)
	Get(ctx context.Context, companyID, id string) (*dto.AlertResponse, error)
	Create(ctx context.Context, companyID string, in dto.CreateAlertRequest) (*dto.AlertResponse, error)
	MarkRead(ctx context.Context, companyID, id string) (*dto.AlertResponse, error)
	MarkManyRead(ctx context.Context, companyID string, ids []string) (int64, error)
	MarkAllRead(ctx context.Context, companyID string) (int64, error)
	Resolve(ctx context.Context, companyID, id, userID string) (*dto.AlertResponse, error)
	Cleanup(ctx context.Context, companyID string, daysOld int) (int64, int, error)
}

type insightService interface {
	Suggest(ctx context.Context, companyID, alertID string) (*dto.AlertInsightDTO, error)
}

type billingService interface {
	Plans() dto.PlansResponse
	Subscription(ctx context.Context, companyID string) (*dto.SubscriptionResponse, error)
	Usage(ctx context.Context, companyID string) (*dto.UsageResponse, error)
	Checkout(ctx context.Context, companyID, userID, planID string) (*dto.CheckoutResponse, error)
	Portal(ctx context.Context, companyID, userID string) (*dto.PortalResponse, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

type dashboardService interface {
	GetDashboard(ctx context.Context, companyID string) (*dto.DashboardDTO, error)
}

type ingestionService interface {
	Import(ctx context.Context, req ingestion.ImportRequest) (*ingestion.ImportResult, error)
	History(ctx context.Context, companyID string, limit, offset int) ([]*entity.Ingestion, error)
	Mappings() map[string]map[string]string
}

type reportService interface {
	UnresolvedAlertsPDF(ctx context.Context, companyID string) ([]byte, string, error)
}
