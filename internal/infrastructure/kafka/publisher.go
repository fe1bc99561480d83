// Package kafka publica eventos de alertas nuevas en un topic de Kafka.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/jhoicas/flowlogic-api/internal/application/ports"
	"github.com/jhoicas/flowlogic-api/internal/domain/entity"
)

var _ ports.AlertPublisher = (*AlertPublisher)(nil)

// EventAlertCreated tipo de evento (header ce-type).
const EventAlertCreated = "com.flowlogic.alert.created"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// AlertEvent cuerpo JSON de cada mensaje.
type AlertEvent struct {
	ID           string    `json:"id"`
	CompanyID    string    `json:"company_id"`
	WarehouseID  string    `json:"warehouse_id,omitempty"`
	IngestionID  string    `json:"ingestion_id,omitempty"`
	Type         string    `json:"type"`
	Severity     string    `json:"severity"`
	Title        string    `json:"title"`
	Message      string    `json:"message"`
	SKU          string    `json:"sku,omitempty"`
	LocationCode string    `json:"location_code,omitempty"`
	IsResolved   bool      `json:"is_resolved"`
	CreatedAt    time.Time `json:"created_at"`
}

// AlertPublisher implementa ports.AlertPublisher sobre un kafka.Writer síncrono.
type AlertPublisher struct {
	writer messageWriter
	topic  string
}

// NewAlertPublisher crea el writer hacia brokers/topic. La clave del mensaje es
// el company_id, así las alertas de una empresa conservan el orden en su partición.
func NewAlertPublisher(brokers []string, topic string) *AlertPublisher {
	return &AlertPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			BatchSize:    100,
			BatchTimeout: 50 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
			Async:        false,
		},
		topic: topic,
	}
}

// Publish envía un mensaje por alerta en un solo lote.
func (p *AlertPublisher) Publish(ctx context.Context, alerts []entity.Alert) error {
	if len(alerts) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(alerts))
	for i := range alerts {
		msg, err := toMessage(&alerts[i])
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("kafka: publicar %d alertas en %s: %w", len(msgs), p.topic, err)
	}
	return nil
}

// Close cierra el writer.
func (p *AlertPublisher) Close() error {
	return p.writer.Close()
}

func toMessage(a *entity.Alert) (kafka.Message, error) {
	ev := AlertEvent{
		ID:           a.ID,
		CompanyID:    a.CompanyID,
		WarehouseID:  a.WarehouseID,
		IngestionID:  a.IngestionID,
		Type:         string(a.Type),
		Severity:     string(a.Severity),
		Title:        a.Title,
		Message:      a.Message,
		SKU:          a.SKU,
		LocationCode: a.LocationCode,
		IsResolved:   a.IsResolved,
		CreatedAt:    a.CreatedAt,
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("kafka: serializar alerta %s: %w", a.ID, err)
	}
	ts := a.CreatedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return kafka.Message{
		Key:   []byte(a.CompanyID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "ce-type", Value: []byte(EventAlertCreated)},
			{Key: "ce-id", Value: []byte(a.ID)},
			{Key: "ce-time", Value: []byte(ts.Format(time.RFC3339))},
			{Key: "ce-severity", Value: []byte(a.Severity)},
			{Key: "content-type", Value: []byte("application/json")},
		},
		Time: ts,
	}, nil
}
