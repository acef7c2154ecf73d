package parkeren

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
)

const accountPath = "/api/account/0"

// AccountManager reads the visitor account
type AccountManager struct {
	executor RequestExecutor
	logger   zerolog.Logger
}

// NewAccountManager creates an AccountManager
func NewAccountManager(executor RequestExecutor, logger zerolog.Logger) *AccountManager {
	return &AccountManager{executor: executor, logger: logger}
}

// Get retrieves the account summary
func (m *AccountManager) Get(ctx context.Context) (*Account, error) {
	outcome := m.executor.Execute(ctx, authenticated(http.MethodGet, accountPath, nil))

	var account Account
	if err := outcome.Decode(&account); err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	m.logger.Debug().
		Int64("account_id", account.ID).
		Int("debit_minutes", account.DebitMinutes).
		Msg("Retrieved account")
	return &account, nil
}
