package usecase

import (
	"time"

	"github.com/DRSN-tech/product-catalog/internal/domain"
	"github.com/shopspring/decimal"
)

// PRODUCT USECASE

// CreateProductReq — запрос на добавление нового продукта.
type CreateProductReq struct {
	Name     string          `validate:"required,min=3,max=100"`
	Code     string          `validate:"required,product_code"`
	Category string          `validate:"required,min=3,max=50"`
	Price    decimal.Decimal `validate:"positive_price"`
	Stock    int64           `validate:"gte=0"`
}

// UpdateProductReq — запрос на изменение продукта. UserID берётся из доверенного заголовка.
type UpdateProductReq struct {
	ID       int64
	UserID   int64
	Name     string          `validate:"required,min=3,max=100"`
	Code     string          `validate:"required,product_code"`
	Category string          `validate:"required,min=3,max=50"`
	Price    decimal.Decimal `validate:"positive_price"`
	Stock    int64           `validate:"gte=0"`
}

// GetProductsReq запрос информации о продуктах по их идентификаторам.
type GetProductsReq struct {
	IDs []int64
}

// GetProductsRes — ответ с данными запрошенных продуктов.
type GetProductsRes struct {
	Products         []ProductInfo
	NotFoundProducts []int64
}

// ProductInfo — DTO с информацией о продукте для внешнего использования.
type ProductInfo struct {
	ID       int64
	Name     string
	Code     string
	Category string
	Price    decimal.Decimal
	Stock    int64
}

// INVENTORY USECASE

// RecordMovementReq — запрос на движение остатка. Category, Code и Price участвуют в ключе идемпотентности,
// Price передаётся строкой ровно так, как его прислал клиент.
type RecordMovementReq struct {
	ProductID int64
	Quantity  int64
	Category  string
	Code      string
	Price     string
}

// MovementStatus различает «применено сейчас» и «уже было применено».
type MovementStatus int

const (
	MovementApplied MovementStatus = iota + 1
	MovementAlreadyApplied
)

func (s MovementStatus) String() string {
	switch s {
	case MovementApplied:
		return "applied"
	case MovementAlreadyApplied:
		return "already_applied"
	default:
		return "unknown"
	}
}

// RecordMovementRes — результат движения. Stock заполнен только для MovementApplied.
type RecordMovementRes struct {
	Status         MovementStatus
	ProductID      int64
	Quantity       int64
	Stock          int64
	IdempotencyKey string
}

// AUTHORIZATION

// Decision — результат проверки прав, не сохраняется между запросами.
type Decision struct {
	Allowed bool
	Reason  string
}

// RoleResult — ответ сервиса пользователей: либо роль, либо сбой.
// Сбой нельзя спутать с настоящей ролью: у него нет значения по умолчанию.
type RoleResult struct {
	Role  string
	Fault error
}

func RoleFound(role string) RoleResult {
	return RoleResult{Role: role}
}

func RoleFault(err error) RoleResult {
	return RoleResult{Fault: err}
}

func (r RoleResult) IsFault() bool {
	return r.Fault != nil
}

// OUTBOX

type OutboxStatus string

const (
	Pending    OutboxStatus = "pending"
	Processing OutboxStatus = "processing"
	Processed  OutboxStatus = "processed"
	Failed     OutboxStatus = "failed"
)

type OutboxEventType string

const (
	ProductCreated OutboxEventType = "product.created"
	ProductUpdated OutboxEventType = "product.updated"
	ProductDeleted OutboxEventType = "product.deleted"
	InventoryMoved OutboxEventType = "inventory.moved"
)

// OutboxEvent — событие об изменении каталога, записываемое в той же транзакции, что и само изменение.
type OutboxEvent struct {
	ID          int64
	EventID     string
	EventType   OutboxEventType
	ProductID   int64
	Payload     []byte
	Status      OutboxStatus
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// INFRASTUCTURE

type WriteRawMessageReq struct {
	ProductID int64
	EventType OutboxEventType
	Payload   []byte
}

// MAPPERS

func NewProductInfo(p *domain.Product) ProductInfo {
	return ProductInfo{
		ID:       p.ID,
		Name:     p.Name,
		Code:     p.Code,
		Category: p.Category,
		Price:    p.Price,
		Stock:    p.Stock,
	}
}

func NewArrProductInfo(products []*domain.Product) []ProductInfo {
	res := make([]ProductInfo, 0, len(products))
	for _, p := range products {
		res = append(res, NewProductInfo(p))
	}

	return res
}

func NewCreateProductReq(name, code, category string, price decimal.Decimal, stock int64) *CreateProductReq {
	return &CreateProductReq{
		Name:     name,
		Code:     code,
		Category: category,
		Price:    price,
		Stock:    stock,
	}
}

func NewUpdateProductReq(id, userID int64, name, code, category string, price decimal.Decimal, stock int64) *UpdateProductReq {
	return &UpdateProductReq{
		ID:       id,
		UserID:   userID,
		Name:     name,
		Code:     code,
		Category: category,
		Price:    price,
		Stock:    stock,
	}
}

func NewRecordMovementReq(productID, quantity int64, category, code, price string) *RecordMovementReq {
	return &RecordMovementReq{
		ProductID: productID,
		Quantity:  quantity,
		Category:  category,
		Code:      code,
		Price:     price,
	}
}

func NewGetProductsRes(pr []ProductInfo, notFoundProducts []int64) *GetProductsRes {
	return &GetProductsRes{
		Products:         pr,
		NotFoundProducts: notFoundProducts,
	}
}

func NewGetProductsReq(ids []int64) *GetProductsReq {
	return &GetProductsReq{ids}
}

func NewWriteRawMessageReq(productID int64, eventType OutboxEventType, payload []byte) *WriteRawMessageReq {
	return &WriteRawMessageReq{
		ProductID: productID,
		EventType: eventType,
		Payload:   payload,
	}
}
