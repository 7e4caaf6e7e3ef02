package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/DRSN-tech/product-catalog/internal/cfg"
	"github.com/DRSN-tech/product-catalog/internal/repository/redis/converter"
	"github.com/DRSN-tech/product-catalog/internal/usecase"
	"github.com/DRSN-tech/product-catalog/pkg/clients"
	"github.com/DRSN-tech/product-catalog/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCache(t *testing.T) *CacheRepo {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR is not set")
	}

	redisCfg := &cfg.RedisCfg{
		Addr:        addr,
		DialTimeout: time.Second,
		Timeout:     time.Second,
		ProductTTL:  time.Minute,
	}
	client := clients.NewRedisClient(redisCfg)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx); err != nil {
		_ = client.Close()
		t.Skipf("redis unavailable: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	return NewCacheRepo(client, converter.NewProductInfoConverter(), redisCfg, logger.Nop{})
}

func TestCacheRepo_SetGetDelete(t *testing.T) {
	repo := setupCache(t)
	ctx := context.Background()

	products := []usecase.ProductInfo{
		{ID: 900001, Name: "Laptop", Code: "PROD-0001", Category: "Electronics", Price: decimal.RequireFromString("999.99"), Stock: 3},
		{ID: 900002, Name: "Phone", Code: "PROD-0002", Category: "Electronics", Price: decimal.RequireFromString("10.50"), Stock: 0},
	}
	cleanupKeys(t, repo, 900001, 900002)

	require.NoError(t, repo.SetProducts(ctx, products))

	got, err := repo.GetProducts(ctx, []int64{900001, 900002, 900003})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Laptop", got[900001].Name)
	assert.True(t, got[900002].Price.Equal(decimal.RequireFromString("10.5")))

	require.NoError(t, repo.DeleteProducts(ctx, []int64{900001}))

	got, err = repo.GetProducts(ctx, []int64{900001, 900002})
	require.NoError(t, err)
	assert.NotContains(t, got, int64(900001))
	assert.Contains(t, got, int64(900002))
}

func cleanupKeys(t *testing.T, repo *CacheRepo, ids ...int64) {
	t.Helper()

	keys := productKeys(ids)
	for _, id := range ids {
		keys = append(keys, invalidationKey(id))
	}
	_ = repo.client.Client.Del(context.Background(), keys...).Err()
	t.Cleanup(func() { _ = repo.client.Client.Del(context.Background(), keys...).Err() })
}

func TestCacheRepo_FillAfterInvalidationIsSkipped(t *testing.T) {
	repo := setupCache(t)
	ctx := context.Background()
	cleanupKeys(t, repo, 900020, 900021)

	// Карточка прочитана из БД до движения остатка
	stale := []usecase.ProductInfo{
		{ID: 900020, Name: "Laptop", Code: "PROD-0020", Category: "Electronics", Price: decimal.RequireFromString("1.00"), Stock: 10},
		{ID: 900021, Name: "Phone", Code: "PROD-0021", Category: "Electronics", Price: decimal.RequireFromString("2.00"), Stock: 4},
	}

	// Движение закоммичено и инвалидировало только первый продукт
	require.NoError(t, repo.DeleteProducts(ctx, []int64{900020}))

	// Запоздавшее фоновое заполнение
	require.NoError(t, repo.SetProducts(ctx, stale))

	got, err := repo.GetProducts(ctx, []int64{900020, 900021})
	require.NoError(t, err)
	assert.NotContains(t, got, int64(900020))
	assert.Equal(t, int64(4), got[900021].Stock)

	ttl, err := repo.client.Client.PTTL(ctx, invalidationKey(900020)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, invalidationTTL)
}

func TestCacheRepo_EmptyInput(t *testing.T) {
	repo := &CacheRepo{}

	got, err := repo.GetProducts(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, repo.SetProducts(context.Background(), nil))
	assert.NoError(t, repo.DeleteProducts(context.Background(), nil))
}

func TestRedisValueToBytes(t *testing.T) {
	data, err := redisValueToBytes("abc", "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), data)

	data, err = redisValueToBytes(nil, "k")
	require.NoError(t, err)
	assert.Nil(t, data)

	_, err = redisValueToBytes(42, "k")
	assert.Error(t, err)
}

func TestCacheRepo_DropsCorruptEntries(t *testing.T) {
	repo := setupCache(t)
	ctx := context.Background()

	key := productKey(900010)
	require.NoError(t, repo.client.Client.Set(ctx, key, "{not json", time.Minute).Err())
	t.Cleanup(func() { _ = repo.client.Client.Del(ctx, key).Err() })

	got, err := repo.GetProducts(ctx, []int64{900010})
	require.NoError(t, err)
	assert.Empty(t, got)

	n, err := repo.client.Client.Exists(ctx, key).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestProductKey(t *testing.T) {
	assert.Equal(t, "catalog:product:42", productKey(42))
	assert.Equal(t, "catalog:product:42:inv", invalidationKey(42))
	assert.Equal(t, []string{"catalog:product:1", "catalog:product:2"}, productKeys([]int64{1, 2}))
}
