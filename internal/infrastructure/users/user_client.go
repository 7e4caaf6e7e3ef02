package users

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/DRSN-tech/product-catalog/internal/cfg"
	"github.com/DRSN-tech/product-catalog/internal/usecase"
	"github.com/DRSN-tech/product-catalog/pkg/e"
	"github.com/DRSN-tech/product-catalog/pkg/jitter"
	"github.com/DRSN-tech/product-catalog/pkg/logger"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

const (
	baseBackoff = 50 * time.Millisecond
	maxBackoff  = 500 * time.Millisecond
)

// userRes — ответ сервиса пользователей.
type userRes struct {
	ID   int64  `json:"id"`
	Role string `json:"role"`
}

// UserClient узнаёт роль пользователя у сервиса пользователей по HTTP.
// Любой сбой возвращается как RoleFault: клиент не паникует и не подставляет роль по умолчанию.
type UserClient struct {
	client   *resty.Client
	rolePath string
	logger   logger.Logger
}

func NewUserClient(cfg *cfg.UsersCfg, logger logger.Logger) *UserClient {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.RequestTimeout).
		SetHeader("Accept", "application/json").
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(baseBackoff).
		SetRetryMaxWaitTime(maxBackoff).
		SetRetryAfter(func(_ *resty.Client, resp *resty.Response) (time.Duration, error) {
			attempt := 0
			if resp != nil && resp.Request != nil {
				attempt = resp.Request.Attempt
			}
			return jitter.ExponentialBackoff(baseBackoff, maxBackoff, attempt, jitter.DefaultJitter), nil
		}).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			return err != nil || (resp != nil && resp.StatusCode() >= http.StatusInternalServerError)
		}).
		OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			otel.GetTextMapPropagator().Inject(req.Context(), propagation.HeaderCarrier(req.Header))
			return nil
		})

	return &UserClient{
		client:   client,
		rolePath: cfg.RolePath,
		logger:   logger,
	}
}

// RoleOf возвращает роль пользователя либо RoleFault.
func (c *UserClient) RoleOf(ctx context.Context, userID int64) (res usecase.RoleResult) {
	const op = "UserClient.RoleOf"

	defer func() {
		if r := recover(); r != nil {
			res = usecase.RoleFault(fmt.Errorf("%s: %w: panic: %v", op, e.ErrUpstreamUnavailable, r))
		}
	}()

	var body userRes
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("userId", strconv.FormatInt(userID, 10)).
		SetResult(&body).
		Get(c.rolePath)
	if err != nil {
		c.logger.Warnf("%s: request for user %d failed: %v", op, userID, err)
		return usecase.RoleFault(fmt.Errorf("%s: %w: %w", op, e.ErrUpstreamUnavailable, err))
	}

	if !resp.IsSuccess() {
		c.logger.Warnf("%s: users service answered %d for user %d", op, resp.StatusCode(), userID)
		return usecase.RoleFault(fmt.Errorf("%s: %w: status %d", op, e.ErrUpstreamUnavailable, resp.StatusCode()))
	}

	role := strings.TrimSpace(body.Role)
	if role == "" {
		return usecase.RoleFault(fmt.Errorf("%s: %w: empty role for user %d", op, e.ErrUpstreamUnavailable, userID))
	}

	return usecase.RoleFound(role)
}
