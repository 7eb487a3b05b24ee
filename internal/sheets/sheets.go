package sheets

import (
	"context"
	"fmt"

	"bookhook/internal/config"
	"bookhook/internal/domain"
)

// New builds the sink selected by cfg.Mode.
func New(ctx context.Context, cfg config.SheetConfig) (domain.Sink, error) {
	switch cfg.Mode {
	case "", config.SheetModeAppsScript:
		return NewForwarder(cfg.URL, cfg.Secret, cfg.Timeout), nil
	case config.SheetModeSheetsAPI:
		appender, err := NewAppender(ctx, cfg.Google.CredentialsFile, cfg.Google.SpreadsheetID,
			cfg.Google.BookingsSheet, cfg.Google.CancellationSheet)
		if err != nil {
			return nil, err
		}
		return appender, nil
	default:
		return nil, fmt.Errorf("unknown sheet mode %q", cfg.Mode)
	}
}
