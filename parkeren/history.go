package parkeren

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
)

const historyPath = "/api/history"

// DefaultHistoryPage is the window requested when none is given
var DefaultHistoryPage = Page{Limit: 20}

// HistoryManager reads past parking sessions
type HistoryManager struct {
	executor RequestExecutor
	logger   zerolog.Logger
}

// NewHistoryManager creates a HistoryManager
func NewHistoryManager(executor RequestExecutor, logger zerolog.Logger) *HistoryManager {
	return &HistoryManager{executor: executor, logger: logger}
}

// List retrieves one page of history entries
func (m *HistoryManager) List(ctx context.Context, page Page) ([]HistoryEntry, error) {
	if page.Limit <= 0 {
		page.Limit = DefaultHistoryPage.Limit
	}

	req := authenticated(http.MethodGet, historyPath, nil)
	req.Headers = page.headers()

	outcome := m.executor.Execute(ctx, req)
	if err := outcome.Err(); err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}

	entries, err := decodeList[HistoryEntry](outcome.Body, "history")
	if err != nil {
		return nil, fmt.Errorf("failed to parse history: %w", err)
	}

	m.logger.Debug().Int("count", len(entries)).Msg("Retrieved history")
	return entries, nil
}
