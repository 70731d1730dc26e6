//go:build !integration

package postgres

import (
	"context"
	"strings"
	"time"

	"mollie-gateway/internal/domain/model"
	red "mollie-gateway/internal/infra/redis"
)

// --- Mocks for Cache Decorator Tests ---

type mockInnerSettingsRepo struct {
	GetFunc  func(ctx context.Context, module string) (model.GatewayParams, error)
	SaveFunc func(ctx context.Context, module string, params model.GatewayParams) error
}

func (m *mockInnerSettingsRepo) Get(ctx context.Context, module string) (model.GatewayParams, error) {
	return m.GetFunc(ctx, module)
}

func (m *mockInnerSettingsRepo) Save(ctx context.Context, module string, params model.GatewayParams) error {
	return m.SaveFunc(ctx, module, params)
}

// mockRedisClient mocks the RedisClient interface.
type mockRedisClient struct {
	GetFunc func(ctx context.Context, key string) (string, error)
	SetFunc func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DelFunc func(ctx context.Context, keys ...string) error
}

var _ red.RedisClient = (*mockRedisClient)(nil)

func (m *mockRedisClient) Ping(ctx context.Context) error { return nil }

func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	return "", red.Nil
}

func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value, expiration)
	}
	return nil
}

func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	if m.DelFunc != nil {
		return m.DelFunc(ctx, keys...)
	}
	return nil
}

func (m *mockRedisClient) Incr(ctx context.Context, key string) (int64, error) { return 0, nil }

func (m *mockRedisClient) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return nil
}

func (m *mockRedisClient) Close() error { return nil }

// reverseCipher is a reversible stand-in for the AES service.
type reverseCipher struct{}

func (reverseCipher) Encrypt(s string) (string, error) { return "x" + reverse(s), nil }

func (reverseCipher) Decrypt(s string) (string, error) {
	return reverse(strings.TrimPrefix(s, "x")), nil
}

func reverse(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}
