package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/DRSN-tech/product-catalog/internal/cfg"
	"github.com/DRSN-tech/product-catalog/internal/repository/redis/converter"
	"github.com/DRSN-tech/product-catalog/internal/usecase"
	"github.com/DRSN-tech/product-catalog/pkg/clients"
	"github.com/DRSN-tech/product-catalog/pkg/e"
	"github.com/DRSN-tech/product-catalog/pkg/logger"
	"github.com/jimlawless/whereami"
	goredis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const (
	productKeyPrefix   = "catalog:product:"
	invalidationSuffix = ":inv"

	// invalidationTTL — сколько живёт метка инвалидации. Должно с запасом превышать время фонового заполнения кэша.
	invalidationTTL = 10 * time.Second
)

// setUnlessInvalidated пишет карточку, только если продукт не инвалидировался недавно.
// KEYS[1] — ключ продукта, KEYS[2] — метка инвалидации, ARGV[1] — данные, ARGV[2] — TTL в миллисекундах.
var setUnlessInvalidated = goredis.NewScript(`
if redis.call('EXISTS', KEYS[2]) == 1 then
	return 0
end
local ttl = tonumber(ARGV[2])
if ttl > 0 then
	redis.call('SET', KEYS[1], ARGV[1], 'PX', ttl)
else
	redis.call('SET', KEYS[1], ARGV[1])
end
return 1
`)

// CacheRepo кэширует карточки продуктов для ручек чтения. Остатки из кэша не используются при движениях.
type CacheRepo struct {
	client  *clients.RedisClient
	conv    converter.ProductInfoConverter
	cfg     *cfg.RedisCfg
	logger  logger.Logger
	lookups metric.Int64Counter
}

func NewCacheRepo(client *clients.RedisClient, conv converter.ProductInfoConverter,
	cfg *cfg.RedisCfg, logger logger.Logger) *CacheRepo {
	lookups, err := otel.Meter("github.com/DRSN-tech/product-catalog/internal/repository/redis").
		Int64Counter("catalog.cache.lookups", metric.WithDescription("Product cache lookups by result"))
	if err != nil {
		lookups = noop.Int64Counter{}
	}

	return &CacheRepo{
		client:  client,
		conv:    conv,
		cfg:     cfg,
		logger:  logger,
		lookups: lookups,
	}
}

// GetProducts возвращает найденные в кэше продукты. Промахи и битые записи просто отсутствуют в результате.
func (r *CacheRepo) GetProducts(ctx context.Context, ids []int64) (map[int64]usecase.ProductInfo, error) {
	if len(ids) == 0 {
		return map[int64]usecase.ProductInfo{}, nil
	}

	keys := productKeys(ids)

	values, err := r.client.Client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	result := make(map[int64]usecase.ProductInfo, len(values))
	var stale []string
	for i, val := range values {
		info, ok := r.decode(val, keys[i], ids[i])
		if !ok {
			if val != nil {
				stale = append(stale, keys[i])
			}
			continue
		}
		result[ids[i]] = *info
	}

	if len(stale) > 0 {
		if err := r.client.Client.Del(ctx, stale...).Err(); err != nil {
			r.logger.Warnf("Redis del of stale entries failed: %v", e.Wrap(whereami.WhereAmI(), err))
		}
	}

	r.lookups.Add(ctx, int64(len(result)), metric.WithAttributes(attribute.String("result", "hit")))
	r.lookups.Add(ctx, int64(len(ids)-len(result)), metric.WithAttributes(attribute.String("result", "miss")))

	return result, nil
}

// decode разбирает одну запись. false означает промах либо запись, которую надо выбросить.
func (r *CacheRepo) decode(val any, key string, id int64) (*usecase.ProductInfo, bool) {
	data, err := redisValueToBytes(val, key)
	if err != nil {
		r.logger.Warnf("%v", e.Wrap(whereami.WhereAmI(), err))
		return nil, false
	}
	if data == nil {
		return nil, false
	}

	var model converter.ProductInfoRedisModel
	if err := json.Unmarshal(data, &model); err != nil {
		r.logger.Warnf("Redis unmarshal failed for %s: %v", key, err)
		return nil, false
	}

	if model.ID != id {
		r.logger.Warnf("Cache ID mismatch: key_id: %d, model_id: %d", id, model.ID)
		return nil, false
	}

	info, err := r.conv.ToUseCase(&model)
	if err != nil {
		r.logger.Warnf("Cache price decode failed for %s: %v", key, err)
		return nil, false
	}

	return info, true
}

// SetProducts кэширует продукты одним pipeline с TTL из конфигурации.
// Продукты с действующей меткой инвалидации пропускаются: их данные могли быть прочитаны до изменения.
func (r *CacheRepo) SetProducts(ctx context.Context, products []usecase.ProductInfo) error {
	if len(products) == 0 {
		return nil
	}

	ttl := r.cfg.ProductTTL.Milliseconds()
	pipeline := r.client.Client.Pipeline()
	for _, model := range r.conv.ToArrRedisModel(products) {
		data, err := json.Marshal(model)
		if err != nil {
			r.logger.Warnf("Failed to marshal product %d for caching: %v", model.ID, err)
			continue
		}

		setUnlessInvalidated.Eval(ctx, pipeline, []string{productKey(model.ID), invalidationKey(model.ID)}, data, ttl)
	}

	if _, err := pipeline.Exec(ctx); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// DeleteProducts инвалидирует записи после изменения продукта или его остатка.
// Вместе с удалением ставится метка, запрещающая запоздавшему заполнению вернуть старые данные.
func (r *CacheRepo) DeleteProducts(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	_, err := r.client.Client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		for _, id := range ids {
			pipe.Set(ctx, invalidationKey(id), 1, invalidationTTL)
		}
		pipe.Del(ctx, productKeys(ids)...)
		return nil
	})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func productKeys(ids []int64) []string {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = productKey(id)
	}

	return keys
}

func productKey(id int64) string {
	return productKeyPrefix + strconv.FormatInt(id, 10)
}

func invalidationKey(id int64) string {
	return productKey(id) + invalidationSuffix
}

// redisValueToBytes приводит ответ MGET к []byte. nil означает промах.
func redisValueToBytes(val any, key string) ([]byte, error) {
	switch v := val.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("unexpected Redis value type for key %s: %T", key, val)
	}
}
