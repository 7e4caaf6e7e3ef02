package converter

import "time"

// ProductModel представляет запись таблицы products в PostgreSQL. Цена читается как текст (price::text).
type ProductModel struct {
	ID        int64      `db:"id"`
	Name      string     `db:"name"`
	Code      string     `db:"code"`
	Category  string     `db:"category"`
	Price     string     `db:"price"`
	Stock     int64      `db:"stock"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt *time.Time `db:"updated_at"`
}

// IdempotencyRecordModel представляет запись таблицы inventory_idempotency.
type IdempotencyRecordModel struct {
	ID        int64     `db:"id"`
	Key       string    `db:"idempotency_key"`
	ProductID int64     `db:"product_id"`
	Quantity  int64     `db:"quantity"`
	CreatedAt time.Time `db:"created_at"`
}

// OutboxEventModel представляет запись таблицы outbox_events.
type OutboxEventModel struct {
	ID          int64      `db:"id"`
	EventID     string     `db:"event_id"`
	EventType   string     `db:"event_type"`
	ProductID   int64      `db:"product_id"`
	Payload     []byte     `db:"payload"`
	Status      string     `db:"status"`
	CreatedAt   time.Time  `db:"created_at"`
	ProcessedAt *time.Time `db:"processed_at"`
}
