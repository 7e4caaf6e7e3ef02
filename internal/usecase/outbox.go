package usecase

import (
	"context"
	"time"

	"github.com/DRSN-tech/product-catalog/internal/domain"
	"github.com/google/uuid"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// NewOutboxEvent собирает событие с payload в виде protobuf Struct.
func NewOutboxEvent(eventType OutboxEventType, productID int64, fields map[string]any) (*OutboxEvent, error) {
	body := make(map[string]any, len(fields)+3)
	for k, v := range fields {
		body[k] = v
	}
	body["event_type"] = string(eventType)
	body["product_id"] = productID
	body["occurred_at"] = time.Now().UTC().Format(time.RFC3339Nano)

	st, err := structpb.NewStruct(body)
	if err != nil {
		return nil, err
	}

	payload, err := proto.Marshal(st)
	if err != nil {
		return nil, err
	}

	return &OutboxEvent{
		EventID:   uuid.NewString(),
		EventType: eventType,
		ProductID: productID,
		Payload:   payload,
		Status:    Pending,
	}, nil
}

// DecodeOutboxPayload разбирает payload события обратно в Struct.
func DecodeOutboxPayload(payload []byte) (*structpb.Struct, error) {
	st := &structpb.Struct{}
	if err := proto.Unmarshal(payload, st); err != nil {
		return nil, err
	}

	return st, nil
}

func productEventFields(p *domain.Product) map[string]any {
	return map[string]any{
		"name":     p.Name,
		"code":     p.Code,
		"category": p.Category,
		"price":    p.Price.String(),
		"stock":    p.Stock,
	}
}

// emitEvent пишет событие в outbox в рамках текущей транзакции.
func emitEvent(ctx context.Context, repo OutboxRepository, eventType OutboxEventType, productID int64, fields map[string]any) error {
	event, err := NewOutboxEvent(eventType, productID, fields)
	if err != nil {
		return err
	}

	_, err = repo.Create(ctx, event)
	return err
}
