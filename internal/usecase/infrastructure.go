package usecase

import "context"

// RoleResolver узнаёт роль пользователя у внешнего сервиса. Сбои возвращаются как RoleFault, а не паникой.
type RoleResolver interface {
	RoleOf(ctx context.Context, userID int64) RoleResult
}

// Authorizer решает, может ли пользователь выполнять изменяющие операции.
type Authorizer interface {
	Authorize(ctx context.Context, userID int64) error
}

// MovementProcessor применяет движение остатка не более одного раза на ключ идемпотентности.
type MovementProcessor interface {
	RecordMovement(ctx context.Context, req *RecordMovementReq) (*RecordMovementRes, error)
}

type MessageProducer interface {
	WriteRawMessage(ctx context.Context, req *WriteRawMessageReq) error
}
