// Package backend is the HTTP client for the planning backend's fixed
// contract: /auth/register, /auth/login, /auth/me, and the post-onboarding
// /accounts/ and /goals/ resources.
//
// Registration is atomic from this client's perspective: a non-2xx response
// means no partial user, profile, or goal record was created, and a 2xx
// response always carries a usable access token. Transport failures and
// timeouts wrap [ErrUnavailable] and are retryable; contract rejections are
// returned as [*APIError] with any field-level messages the backend provided.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrUnavailable wraps network-level failures and timeouts. Callers may
// retry; the request had no observable effect when registration reports it.
var ErrUnavailable = errors.New("backend unavailable")

// APIError is a structured rejection from the backend.
type APIError struct {
	StatusCode int
	Message    string
	Fields     map[string]string
}

func (e *APIError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("backend rejected request (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("backend rejected request (%d): %s (%d field errors)", e.StatusCode, e.Message, len(e.Fields))
}

// Client talks to one backend base URL with a bounded request timeout.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a backend [Client]. When hc is nil a default client with
// the given timeout is used.
func NewClient(baseURL string, hc *http.Client, timeout time.Duration) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
	}
}

// GoalPayload is the goal slice of the registration body.
type GoalPayload struct {
	Name         string  `json:"name,omitempty"`
	TargetAmount float64 `json:"targetAmount"`
	TimeHorizon  int     `json:"timeHorizon"`
}

// RegistrationRequest is the immutable registration body. Field names follow
// the backend contract exactly.
type RegistrationRequest struct {
	Email         string      `json:"email"`
	Password      string      `json:"password"`
	DOB           string      `json:"dob"`
	NationalID    string      `json:"nationalId"`
	KRAPin        string      `json:"kra_pin,omitempty"`
	AnnualIncome  float64     `json:"annual_income"`
	Dependents    int         `json:"dependents"`
	Role          string      `json:"role,omitempty"`
	Goals         GoalPayload `json:"goals"`
	Questionnaire []int       `json:"questionnaire"`
}

// TokenResponse is returned by register and login calls.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
	RiskScore   int    `json:"risk_score,omitempty"`
	RiskLevel   string `json:"risk_level,omitempty"`
}

// Profile is the personal slice of the /auth/me response.
type Profile struct {
	Email        string  `json:"email"`
	FirstName    string  `json:"first_name,omitempty"`
	LastName     string  `json:"last_name,omitempty"`
	DOB          string  `json:"dob,omitempty"`
	AnnualIncome float64 `json:"annual_income,omitempty"`
	Dependents   int     `json:"dependents,omitempty"`
	RiskScore    int     `json:"risk_score,omitempty"`
	RiskLevel    string  `json:"risk_level,omitempty"`
}

// MeResponse is the /auth/me envelope.
type MeResponse struct {
	Email   string   `json:"email"`
	Role    string   `json:"role,omitempty"`
	Profile *Profile `json:"profile,omitempty"`
}

// Register submits the single atomic registration transaction.
func (c *Client) Register(ctx context.Context, req RegistrationRequest) (*TokenResponse, error) {
	var out TokenResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/register", "", req, &out); err != nil {
		return nil, err
	}
	if out.AccessToken == "" {
		return nil, &APIError{StatusCode: http.StatusOK, Message: "registration response missing access token"}
	}
	return &out, nil
}

// Login exchanges form-encoded credentials for an access token.
func (c *Client) Login(ctx context.Context, username, password string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var out TokenResponse
	if err := c.send(httpReq, &out); err != nil {
		return nil, err
	}
	if out.AccessToken == "" {
		return nil, &APIError{StatusCode: http.StatusOK, Message: "login response missing access token"}
	}
	return &out, nil
}

// Me fetches the authenticated user's profile.
func (c *Client) Me(ctx context.Context, token string) (*MeResponse, error) {
	var out MeResponse
	if err := c.doJSON(ctx, http.MethodGet, "/auth/me", token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) doJSON(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	return c.send(httpReq, out)
}

func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp.StatusCode, data)
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &APIError{StatusCode: resp.StatusCode, Message: "malformed response body"}
	}
	return nil
}

func decodeAPIError(status int, data []byte) error {
	apiErr := &APIError{StatusCode: status, Message: http.StatusText(status)}

	var body struct {
		Detail  string            `json:"detail"`
		Message string            `json:"message"`
		Errors  map[string]string `json:"errors"`
	}
	if err := json.Unmarshal(data, &body); err == nil {
		switch {
		case body.Detail != "":
			apiErr.Message = body.Detail
		case body.Message != "":
			apiErr.Message = body.Message
		}
		if len(body.Errors) > 0 {
			apiErr.Fields = body.Errors
		}
	}
	return apiErr
}
