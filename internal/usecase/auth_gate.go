package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/DRSN-tech/product-catalog/pkg/e"
	"github.com/DRSN-tech/product-catalog/pkg/logger"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	reasonAdmin         = "admin role"
	reasonNotAdmin      = "role is not admin"
	reasonEmptyRole     = "empty role"
	reasonNoAdminRole   = "admin role is not configured"
	reasonResolverFault = "role lookup failed"
)

// DefaultAuthTimeout применяется, если таймаут не задан или не положителен.
const DefaultAuthTimeout = 2 * time.Second

// AuthGate проверяет, что пользователь является администратором.
// Работает по принципу fail-closed: любой сбой, таймаут или паника сервиса пользователей означают отказ.
type AuthGate struct {
	resolver  RoleResolver
	adminRole string
	timeout   time.Duration
	logger    logger.Logger
	decisions metric.Int64Counter
}

func NewAuthGate(resolver RoleResolver, adminRole string, timeout time.Duration, logger logger.Logger) *AuthGate {
	if timeout <= 0 {
		timeout = DefaultAuthTimeout
	}

	return &AuthGate{
		resolver:  resolver,
		adminRole: strings.TrimSpace(adminRole),
		timeout:   timeout,
		logger:    logger,
		decisions: newCounter("authorization.decisions", "Authorization gate decisions"),
	}
}

// Decide вычисляет решение для пользователя. Решение не кэшируется.
func (g *AuthGate) Decide(ctx context.Context, userID int64) Decision {
	const op = "AuthGate.Decide"

	ctx, span := tracer.Start(ctx, op, trace.WithAttributes(attribute.Int64("user.id", userID)))
	defer span.End()

	var decision Decision
	if g.adminRole == "" {
		decision = Decision{Reason: reasonNoAdminRole}
	} else {
		decision = g.evaluate(g.resolve(ctx, userID))
	}

	span.SetAttributes(
		attribute.Bool("authorization.allowed", decision.Allowed),
		attribute.String("authorization.reason", decision.Reason),
	)
	g.decisions.Add(ctx, 1, metric.WithAttributes(attribute.String("decision", decisionLabel(decision))))

	if decision.Allowed {
		g.logger.Debugf("%s: user %d allowed", op, userID)
	} else {
		g.logger.Infof("%s: user %d denied: %s", op, userID, decision.Reason)
	}

	return decision
}

// Authorize возвращает ErrUnauthorized при отказе. Отказ и недоступность сервиса пользователей неразличимы.
func (g *AuthGate) Authorize(ctx context.Context, userID int64) error {
	const op = "AuthGate.Authorize"

	if !g.Decide(ctx, userID).Allowed {
		return e.Wrap(op, e.ErrUnauthorized)
	}

	return nil
}

// resolve ограничивает вызов сервиса пользователей таймаутом и перехватывает панику.
// Ожидание прекращается по дедлайну, даже если resolver не следит за контекстом.
func (g *AuthGate) resolve(ctx context.Context, userID int64) RoleResult {
	const op = "AuthGate.resolve"

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resCh := make(chan RoleResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				resCh <- RoleFault(fmt.Errorf("%s: %w: resolver panic: %v", op, e.ErrUpstreamUnavailable, r))
			}
		}()

		resCh <- g.resolver.RoleOf(ctx, userID)
	}()

	select {
	case res := <-resCh:
		return res
	case <-ctx.Done():
		return RoleFault(fmt.Errorf("%s: %w: %w", op, e.ErrUpstreamUnavailable, ctx.Err()))
	}
}

func (g *AuthGate) evaluate(res RoleResult) Decision {
	if res.IsFault() {
		g.logger.Warnf("AuthGate.evaluate: %v", res.Fault)
		return Decision{Reason: reasonResolverFault}
	}

	role := strings.TrimSpace(res.Role)
	switch {
	case role == "":
		return Decision{Reason: reasonEmptyRole}
	case strings.EqualFold(role, g.adminRole):
		return Decision{Allowed: true, Reason: reasonAdmin}
	default:
		return Decision{Reason: reasonNotAdmin}
	}
}

func decisionLabel(d Decision) string {
	if d.Allowed {
		return "allow"
	}
	return "deny"
}
