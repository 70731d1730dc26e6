package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"mollie-gateway/internal/domain/model"
	"mollie-gateway/internal/domain/ports/repository"
	"mollie-gateway/internal/infra/metrics"
	red "mollie-gateway/internal/infra/redis"
)

var _ repository.GatewaySettingsRepository = (*settingsRepoCacheDecorator)(nil)

// settingsRepoCacheDecorator keeps module settings in Redis. The cached blob
// is sealed with the same cipher as the database rows since it carries API keys.
type settingsRepoCacheDecorator struct {
	inner  repository.GatewaySettingsRepository
	cache  red.RedisClient
	cipher SecretCipher
	ttl    time.Duration
	log    *zerolog.Logger
}

func NewSettingsRepoCacheDecorator(inner repository.GatewaySettingsRepository, cache red.RedisClient, cipher SecretCipher, ttl time.Duration, logger *zerolog.Logger) repository.GatewaySettingsRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		n := zerolog.Nop()
		logger = &n
	}
	return &settingsRepoCacheDecorator{inner: inner, cache: cache, cipher: cipher, ttl: ttl, log: logger}
}

// SettingsCacheKey is where the decorator caches a module's settings.
func SettingsCacheKey(module string) string { return "gateway:settings:" + module }

func (d *settingsRepoCacheDecorator) Get(ctx context.Context, module string) (model.GatewayParams, error) {
	key := SettingsCacheKey(module)
	val, err := d.cache.Get(ctx, key)
	switch {
	case err == nil:
		if params, ok := d.decode(val); ok {
			metrics.IncCacheRequest("gateway_settings", "hit")
			return params, nil
		}
	case !errors.Is(err, red.Nil):
		metrics.IncCacheRequest("gateway_settings", "error")
		d.log.Warn().Err(err).Str("key", key).Msg("settings cache read failed")
	}

	metrics.IncCacheRequest("gateway_settings", "miss")
	params, err := d.inner.Get(ctx, module)
	if err != nil {
		return nil, err
	}
	if blob, ok := d.encode(params); ok {
		if err := d.cache.Set(ctx, key, blob, d.ttl); err != nil {
			d.log.Warn().Err(err).Str("key", key).Msg("settings cache write failed")
		}
	}
	return params, nil
}

// Save invalidates before and after the write so a concurrent reader cannot
// re-cache the old value for a full ttl.
func (d *settingsRepoCacheDecorator) Save(ctx context.Context, module string, params model.GatewayParams) error {
	key := SettingsCacheKey(module)
	_ = d.cache.Del(ctx, key)
	if err := d.inner.Save(ctx, module, params); err != nil {
		return err
	}
	_ = d.cache.Del(ctx, key)
	return nil
}

func (d *settingsRepoCacheDecorator) encode(params model.GatewayParams) (string, bool) {
	b, err := json.Marshal(params)
	if err != nil {
		return "", false
	}
	if d.cipher == nil {
		return string(b), true
	}
	ct, err := d.cipher.Encrypt(string(b))
	if err != nil {
		return "", false
	}
	return ct, true
}

func (d *settingsRepoCacheDecorator) decode(val string) (model.GatewayParams, bool) {
	if d.cipher != nil {
		pt, err := d.cipher.Decrypt(val)
		if err != nil {
			return nil, false
		}
		val = pt
	}
	var params model.GatewayParams
	if err := json.Unmarshal([]byte(val), &params); err != nil {
		return nil, false
	}
	return params, true
}
