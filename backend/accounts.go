package backend

import (
	"context"
	"fmt"
	"net/http"
)

// Account is a financial account record, consumed post-onboarding.
type Account struct {
	ID          string  `json:"id,omitempty"`
	Name        string  `json:"name"`
	Institution string  `json:"institution,omitempty"`
	Type        string  `json:"type,omitempty"`
	Balance     float64 `json:"balance"`
}

// ListAccounts fetches the user's accounts.
func (c *Client) ListAccounts(ctx context.Context, token string) ([]Account, error) {
	var out []Account
	if err := c.doJSON(ctx, http.MethodGet, "/accounts/", token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateAccount records a new account.
func (c *Client) CreateAccount(ctx context.Context, token string, acct Account) (*Account, error) {
	var out Account
	if err := c.doJSON(ctx, http.MethodPost, "/accounts/", token, acct, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateAccount replaces an existing account record.
func (c *Client) UpdateAccount(ctx context.Context, token string, acct Account) (*Account, error) {
	if acct.ID == "" {
		return nil, &APIError{StatusCode: http.StatusBadRequest, Message: "account id required"}
	}
	var out Account
	path := fmt.Sprintf("/accounts/%s", acct.ID)
	if err := c.doJSON(ctx, http.MethodPut, path, token, acct, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteAccount removes an account record.
func (c *Client) DeleteAccount(ctx context.Context, token, id string) error {
	path := fmt.Sprintf("/accounts/%s", id)
	return c.doJSON(ctx, http.MethodDelete, path, token, nil, nil)
}

// GoalRecord is a persisted goal, consumed post-onboarding.
type GoalRecord struct {
	ID           string  `json:"id,omitempty"`
	Name         string  `json:"name"`
	TargetAmount float64 `json:"targetAmount"`
	TimeHorizon  int     `json:"timeHorizon"`
}

// ListGoals fetches the user's goals.
func (c *Client) ListGoals(ctx context.Context, token string) ([]GoalRecord, error) {
	var out []GoalRecord
	if err := c.doJSON(ctx, http.MethodGet, "/goals/", token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateGoal records a new goal.
func (c *Client) CreateGoal(ctx context.Context, token string, goal GoalRecord) (*GoalRecord, error) {
	var out GoalRecord
	if err := c.doJSON(ctx, http.MethodPost, "/goals/", token, goal, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
