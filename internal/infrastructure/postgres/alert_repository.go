package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/flowlogic-api/internal/domain/entity"
	"github.com/jhoicas/flowlogic-api/internal/domain/repository"
)

var _ repository.AlertRepository = (*AlertRepo)(nil)

// AlertRepo persistencia de alertas sobre PostgreSQL.
type AlertRepo struct {
	db Querier
}

// NewAlertRepository construye el adaptador de alertas.
func NewAlertRepository(db Querier) *AlertRepo {
	return &AlertRepo{db: db}
}

const alertColumns = `id, company_id, warehouse_id, ingestion_id, type, severity, title, message,
	sku, location_code, dedupe_key, suggested_action, is_read, is_resolved, resolved_by, resolved_at, created_at`

// Insert inserta la alerta. Con dedupe, el índice parcial uq_alerts_open_dedupe descarta
// duplicados de alertas abiertas. Sin dedupe la clave no se guarda.
func (r *AlertRepo) Insert(ctx context.Context, a *entity.Alert, dedupe bool) (bool, error) {
	key := nullIfEmpty(a.DedupeKey)
	if !dedupe {
		key = nil
	}
	query := `
		INSERT INTO alerts (id, company_id, warehouse_id, ingestion_id, type, severity, severity_rank, title, message,
		                    sku, location_code, dedupe_key, suggested_action, is_read, is_resolved, resolved_by, resolved_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (company_id, dedupe_key) WHERE dedupe_key IS NOT NULL AND is_resolved = false
		DO NOTHING`
	cmd, err := r.db.Exec(ctx, query,
		a.ID, a.CompanyID, nullIfEmpty(a.WarehouseID), nullIfEmpty(a.IngestionID),
		string(a.Type), string(a.Severity), a.Severity.Rank(), a.Title, a.Message,
		nullIfEmpty(a.SKU), nullIfEmpty(a.LocationCode), key, nullIfEmpty(a.SuggestedAction),
		a.IsRead, a.IsResolved, nullIfEmpty(a.ResolvedBy), a.ResolvedAt, a.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert alert: %w", err)
	}
	return cmd.RowsAffected() == 1, nil
}

// GetByID obtiene una alerta de la empresa.
func (r *AlertRepo) GetByID(ctx context.Context, companyID, id string) (*entity.Alert, error) {
	row := r.db.QueryRow(ctx, `SELECT `+alertColumns+` FROM alerts WHERE company_id = $1 AND id = $2`, companyID, id)
	a, err := scanAlert(row)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get alert: %w", err)
	}
	return a, nil
}

// List devuelve una página de alertas y el total que cumple el filtro.
// Orden: severidad descendente, luego más recientes primero.
func (r *AlertRepo) List(ctx context.Context, f repository.AlertFilter) ([]*entity.Alert, int, error) {
	where, args := alertWhere(f)

	var total int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM alerts WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count alerts: %w", err)
	}

	args = append(args, f.Limit, f.Offset)
	query := fmt.Sprintf(`SELECT %s FROM alerts WHERE %s
		ORDER BY severity_rank DESC, created_at DESC LIMIT $%d OFFSET $%d`,
		alertColumns, where, len(args)-1, len(args))
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list alerts: %w", err)
	}
	defer rows.Close()

	list := make([]*entity.Alert, 0, f.Limit)
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan alert: %w", err)
		}
		list = append(list, a)
	}
	return list, total, rows.Err()
}

func alertWhere(f repository.AlertFilter) (string, []any) {
	conds := []string{"company_id = $1"}
	args := []any{f.CompanyID}
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.WarehouseID != "" {
		add("warehouse_id = $%d", f.WarehouseID)
	}
	if f.Type != "" {
		add("type = $%d", string(f.Type))
	}
	if f.Severity != "" {
		add("severity = $%d", string(f.Severity))
	}
	if f.MinSeverity != "" {
		add("severity_rank >= $%d", f.MinSeverity.Rank())
	}
	if f.IsRead != nil {
		add("is_read = $%d", *f.IsRead)
	}
	if f.IsResolved != nil {
		add("is_resolved = $%d", *f.IsResolved)
	}
	return strings.Join(conds, " AND "), args
}

// Summary conteos globales y desglose de alertas abiertas por severidad y tipo.
func (r *AlertRepo) Summary(ctx context.Context, companyID string) (*repository.AlertSummary, error) {
	s := &repository.AlertSummary{
		BySeverity: make(map[entity.AlertSeverity]int),
		ByType:     make(map[entity.AlertType]int),
	}
	err := r.db.QueryRow(ctx, `
		SELECT count(*),
		       count(*) FILTER (WHERE NOT is_read),
		       count(*) FILTER (WHERE NOT is_resolved)
		  FROM alerts WHERE company_id = $1`, companyID,
	).Scan(&s.Total, &s.Unread, &s.Unresolved)
	if err != nil {
		return nil, fmt.Errorf("alert summary: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT severity, type, count(*)
		  FROM alerts WHERE company_id = $1 AND NOT is_resolved
		 GROUP BY severity, type`, companyID)
	if err != nil {
		return nil, fmt.Errorf("alert breakdown: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var sev, typ string
		var n int
		if err := rows.Scan(&sev, &typ, &n); err != nil {
			return nil, fmt.Errorf("scan alert breakdown: %w", err)
		}
		s.BySeverity[entity.AlertSeverity(sev)] += n
		s.ByType[entity.AlertType(typ)] += n
	}
	return s, rows.Err()
}

// MarkRead marca una alerta como leída; false si no existe en la empresa.
func (r *AlertRepo) MarkRead(ctx context.Context, companyID, id string) (bool, error) {
	cmd, err := r.db.Exec(ctx, `UPDATE alerts SET is_read = true WHERE company_id = $1 AND id = $2`, companyID, id)
	if err != nil {
		return false, fmt.Errorf("mark alert read: %w", err)
	}
	return cmd.RowsAffected() == 1, nil
}

// MarkManyRead marca como leídas las alertas indicadas de la empresa.
func (r *AlertRepo) MarkManyRead(ctx context.Context, companyID string, ids []string) (int64, error) {
	cmd, err := r.db.Exec(ctx, `
		UPDATE alerts SET is_read = true
		 WHERE company_id = $1 AND id::text = ANY($2) AND NOT is_read`, companyID, ids)
	if err != nil {
		return 0, fmt.Errorf("mark alerts read: %w", err)
	}
	return cmd.RowsAffected(), nil
}

// MarkAllRead marca todas las alertas no leídas de la empresa.
func (r *AlertRepo) MarkAllRead(ctx context.Context, companyID string) (int64, error) {
	cmd, err := r.db.Exec(ctx, `UPDATE alerts SET is_read = true WHERE company_id = $1 AND NOT is_read`, companyID)
	if err != nil {
		return 0, fmt.Errorf("mark all alerts read: %w", err)
	}
	return cmd.RowsAffected(), nil
}

// Resolve resuelve la alerta; si ya estaba resuelta conserva quién y cuándo.
func (r *AlertRepo) Resolve(ctx context.Context, companyID, id, userID string, at time.Time) (*entity.Alert, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE alerts
		   SET is_resolved = true, is_read = true,
		       resolved_by = COALESCE(resolved_by, $3),
		       resolved_at = COALESCE(resolved_at, $4)
		 WHERE company_id = $1 AND id = $2
		RETURNING `+alertColumns, companyID, id, nullIfEmpty(userID), at)
	a, err := scanAlert(row)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("resolve alert: %w", err)
	}
	return a, nil
}

// SetSuggestedAction guarda la acción sugerida (IA) de una alerta.
func (r *AlertRepo) SetSuggestedAction(ctx context.Context, companyID, id, action string) error {
	if _, err := r.db.Exec(ctx, `UPDATE alerts SET suggested_action = $3 WHERE company_id = $1 AND id = $2`, companyID, id, action); err != nil {
		return fmt.Errorf("set suggested action: %w", err)
	}
	return nil
}

// DeleteResolvedBefore borra alertas resueltas antes de la fecha dada.
func (r *AlertRepo) DeleteResolvedBefore(ctx context.Context, companyID string, before time.Time) (int64, error) {
	cmd, err := r.db.Exec(ctx, `
		DELETE FROM alerts WHERE company_id = $1 AND is_resolved AND resolved_at < $2`, companyID, before)
	if err != nil {
		return 0, fmt.Errorf("cleanup alerts: %w", err)
	}
	return cmd.RowsAffected(), nil
}

func scanAlert(row rowScanner) (*entity.Alert, error) {
	var (
		a                                                          entity.Alert
		typ, sev                                                   string
		warehouseID, ingestionID, sku, location, key, action, byID *string
	)
	err := row.Scan(
		&a.ID, &a.CompanyID, &warehouseID, &ingestionID, &typ, &sev, &a.Title, &a.Message,
		&sku, &location, &key, &action, &a.IsRead, &a.IsResolved, &byID, &a.ResolvedAt, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Type = entity.AlertType(typ)
	a.Severity = entity.AlertSeverity(sev)
	a.WarehouseID = deref(warehouseID)
	a.IngestionID = deref(ingestionID)
	a.SKU = deref(sku)
	a.LocationCode = deref(location)
	a.DedupeKey = deref(key)
	a.SuggestedAction = deref(action)
	a.ResolvedBy = deref(byID)
	return &a, nil
}
