package ports

import (
	"context"

	"github.com/jhoicas/flowlogic-api/internal/domain/entity"
)

// AlertPublisher publica las alertas recién creadas hacia otros sistemas (Kafka).
// Es best-effort: un fallo se registra pero no revierte la ingesta.
type AlertPublisher interface {
	Publish(ctx context.Context, alerts []entity.Alert) error
	Close() error
}

// NopPublisher no publica nada; se usa cuando KAFKA_BROKERS está vacío.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, []entity.Alert) error { return nil }
func (NopPublisher) Close() error                                 { return nil }
