package dispatch

import (
	"fmt"

	"leadcall-api/internal/config"
)

// New selects the dispatcher for the configured mode.
func New(cfg config.DispatchConfig) (CallDispatcher, error) {
	switch cfg.Mode {
	case config.DispatchModeDirect:
		return NewElevenLabsDispatcher(cfg.BaseURL, cfg.APIKey, cfg.Timeout), nil
	case config.DispatchModeWebhook:
		return NewWebhookDispatcher(cfg.WebhookURL, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("dispatch: unknown mode %q", cfg.Mode)
	}
}
