package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"mollie-gateway/internal/domain/model"
	"mollie-gateway/internal/domain/ports/repository"
	"mollie-gateway/internal/infra/logging"
)

// Module call log actions.
const (
	ActionLink     = "Mollie Link"
	ActionRefund   = "Mollie Refund action"
	ActionCallback = "Mollie Callback action"
)

// recordModuleCall appends a diagnostic entry. A failing log store is only
// reported through the application logger, never to the caller.
func recordModuleCall(ctx context.Context, repo repository.ModuleCallLogRepository, logger *zerolog.Logger, action string, request any, response string) {
	entry := &model.ModuleCallLog{
		Module:    model.ModuleName,
		Action:    action,
		Request:   stringify(request),
		Response:  response,
		CreatedAt: time.Now().UTC(),
	}
	if repo == nil {
		return
	}
	if err := repo.Append(ctx, entry); err != nil && logger != nil {
		logging.With(ctx, logger).Error().Err(err).Str("action", action).Msg("module call log append failed")
	}
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

func nopLogger(l *zerolog.Logger) *zerolog.Logger {
	if l != nil {
		return l
	}
	n := zerolog.Nop()
	return &n
}
