package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"mollie-gateway/internal/domain"
	"mollie-gateway/internal/domain/model"
	"mollie-gateway/internal/domain/ports/repository"
)

// SecretCipher encrypts setting values at rest.
type SecretCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// secretSettings are stored encrypted when a cipher is configured.
var secretSettings = map[string]bool{
	model.SettingLiveAPIKey: true,
	model.SettingTestAPIKey: true,
}

const encPrefix = "enc:"

var _ repository.GatewaySettingsRepository = (*gatewaySettingsRepo)(nil)

type gatewaySettingsRepo struct {
	pool   *pgxpool.Pool
	cipher SecretCipher
}

// NewGatewaySettingsRepo builds the settings store. cipher may be nil, in
// which case secrets are stored as given.
func NewGatewaySettingsRepo(pool *pgxpool.Pool, cipher SecretCipher) *gatewaySettingsRepo {
	return &gatewaySettingsRepo{pool: pool, cipher: cipher}
}

func (r *gatewaySettingsRepo) Get(ctx context.Context, module string) (model.GatewayParams, error) {
	const q = `SELECT setting, value FROM gateway_settings WHERE module=$1;`
	rows, err := queryRows(ctx, r.pool, nil, q, module)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	params := model.GatewayParams{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		if v, err = r.open(k, v); err != nil {
			return nil, err
		}
		params[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return params, nil
}

// Save replaces every setting of module.
func (r *gatewaySettingsRepo) Save(ctx context.Context, module string, params model.GatewayParams) error {
	sealed := make(map[string]string, len(params))
	for k, v := range params {
		sv, err := r.seal(k, v)
		if err != nil {
			return err
		}
		sealed[k] = sv
	}
	return r.pool.BeginTxFunc(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM gateway_settings WHERE module=$1;`, module); err != nil {
			return mapWriteErr(err)
		}
		for k, v := range sealed {
			if _, err := tx.Exec(ctx, `INSERT INTO gateway_settings (module, setting, value) VALUES ($1,$2,$3);`, module, k, v); err != nil {
				return mapWriteErr(err)
			}
		}
		return nil
	})
}

func (r *gatewaySettingsRepo) seal(key, value string) (string, error) {
	if r.cipher == nil || !secretSettings[key] || value == "" {
		return value, nil
	}
	ct, err := r.cipher.Encrypt(value)
	if err != nil {
		return "", fmt.Errorf("encrypt %s: %w", key, err)
	}
	return encPrefix + ct, nil
}

func (r *gatewaySettingsRepo) open(key, value string) (string, error) {
	if !strings.HasPrefix(value, encPrefix) {
		return value, nil
	}
	if r.cipher == nil {
		return "", fmt.Errorf("%w: setting %s is encrypted but no key is configured", domain.ErrOperationFailed, key)
	}
	pt, err := r.cipher.Decrypt(strings.TrimPrefix(value, encPrefix))
	if err != nil {
		return "", fmt.Errorf("decrypt %s: %w", key, err)
	}
	return pt, nil
}
