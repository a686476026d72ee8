package onboard

import (
	"context"

	"github.com/safirihq/onboard/backend"
)

// Account is a financial account record, available once a session exists.
type Account = backend.Account

// GoalRecord is a persisted savings goal.
type GoalRecord = backend.GoalRecord

// withToken resolves the current session token for authenticated calls.
func (e *Engine) withToken(ctx context.Context) (string, error) {
	sess, err := e.CurrentSession(ctx)
	if err != nil {
		return "", err
	}
	return sess.Token, nil
}

// Accounts lists the user's financial accounts.
func (e *Engine) Accounts(ctx context.Context) ([]Account, error) {
	token, err := e.withToken(ctx)
	if err != nil {
		return nil, err
	}
	return e.backend.ListAccounts(ctx, token)
}

// AddAccount records a new financial account.
func (e *Engine) AddAccount(ctx context.Context, acct Account) (*Account, error) {
	token, err := e.withToken(ctx)
	if err != nil {
		return nil, err
	}
	return e.backend.CreateAccount(ctx, token, acct)
}

// UpdateAccount replaces an existing account record by ID.
func (e *Engine) UpdateAccount(ctx context.Context, acct Account) (*Account, error) {
	token, err := e.withToken(ctx)
	if err != nil {
		return nil, err
	}
	return e.backend.UpdateAccount(ctx, token, acct)
}

// RemoveAccount deletes an account record.
func (e *Engine) RemoveAccount(ctx context.Context, id string) error {
	token, err := e.withToken(ctx)
	if err != nil {
		return err
	}
	return e.backend.DeleteAccount(ctx, token, id)
}

// Goals lists the user's persisted goals.
func (e *Engine) Goals(ctx context.Context) ([]GoalRecord, error) {
	token, err := e.withToken(ctx)
	if err != nil {
		return nil, err
	}
	return e.backend.ListGoals(ctx, token)
}

// AddGoal records a new goal.
func (e *Engine) AddGoal(ctx context.Context, goal GoalRecord) (*GoalRecord, error) {
	token, err := e.withToken(ctx)
	if err != nil {
		return nil, err
	}
	return e.backend.CreateGoal(ctx, token, goal)
}
