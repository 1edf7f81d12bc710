package httpapi

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

	"github.com/bnema/windsurf-accounts-cli/internal/domain"
	"github.com/bnema/windsurf-accounts-cli/internal/ports"
	"golang.org/x/time/rate"
)

const maxResponseBytes = 1 << 20

// Client talks to the remote account/authentication API. Requests pass
// through a client-side rate limiter so a large batch of CLI operations
// cannot hammer the backend.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

var _ ports.AccountAPI = (*Client)(nil)

func NewClient(baseURL, token string, httpClient *http.Client, requestsPerSecond float64) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if requestsPerSecond > 0 {
		burst := int(requestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: httpClient,
		limiter:    limiter,
	}
}

func (c *Client) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	var payload []accountDTO
	if err := c.do(ctx, http.MethodGet, "/accounts", nil, &payload); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	accounts := make([]domain.Account, 0, len(payload))
	for _, dto := range payload {
		accounts = append(accounts, dto.toDomain())
	}
	return accounts, nil
}

func (c *Client) CreateAccount(ctx context.Context, fields ports.NewAccount) (domain.Account, error) {
	body := createAccountRequest{
		Email:    fields.Email,
		Nickname: fields.Nickname,
		Tags:     fields.Tags,
	}
	if fields.Group != "" {
		body.Group = &fields.Group
	}

	var payload accountDTO
	if err := c.do(ctx, http.MethodPost, "/accounts", body, &payload); err != nil {
		return domain.Account{}, fmt.Errorf("create account: %w", err)
	}
	return payload.toDomain(), nil
}

func (c *Client) UpdateAccount(ctx context.Context, account domain.Account) error {
	path := "/accounts/" + url.PathEscape(string(account.ID))
	if err := c.do(ctx, http.MethodPut, path, fromDomain(account), nil); err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	return nil
}

func (c *Client) DeleteAccount(ctx context.Context, id domain.AccountID) error {
	path := "/accounts/" + url.PathEscape(string(id))
	if err := c.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return nil
}

func (c *Client) DeleteAccountsBatch(ctx context.Context, ids []domain.AccountID) (ports.BatchDeleteResult, error) {
	body := batchDeleteRequest{IDs: idsToStrings(ids)}

	var payload batchDeleteResponse
	if err := c.do(ctx, http.MethodPost, "/accounts/batch-delete", body, &payload); err != nil {
		return ports.BatchDeleteResult{}, fmt.Errorf("delete accounts batch: %w", err)
	}

	result := ports.BatchDeleteResult{FailedIDs: make([]domain.AccountID, 0, len(payload.FailedIDs))}
	for _, id := range payload.FailedIDs {
		result.FailedIDs = append(result.FailedIDs, domain.AccountID(id))
	}
	return result, nil
}

func (c *Client) RefreshToken(ctx context.Context, id domain.AccountID) (ports.RefreshResult, error) {
	path := "/accounts/" + url.PathEscape(string(id)) + "/refresh"

	var payload refreshResponse
	if err := c.do(ctx, http.MethodPost, path, nil, &payload); err != nil {
		return ports.RefreshResult{}, fmt.Errorf("refresh token: %w", err)
	}

	result := ports.RefreshResult{Success: payload.Success, Error: payload.Error}
	if payload.Success {
		result.Data = &ports.RefreshData{
			Token:                 payload.Token,
			TokenExpiresAt:        payload.ExpiresAt,
			PlanName:              payload.PlanName,
			UsedQuota:             payload.UsedQuota,
			TotalQuota:            payload.TotalQuota,
			SubscriptionExpiresAt: payload.SubscriptionExpiresAt,
			IsDisabled:            payload.IsDisabled,
			IsTeamOwner:           payload.IsTeamOwner,
		}
	}
	return result, nil
}

func (c *Client) BatchRefreshTokens(ctx context.Context, ids []domain.AccountID, concurrency int) (ports.BatchRefreshResponse, error) {
	body := batchRefreshRequest{IDs: idsToStrings(ids), Concurrency: concurrency}

	var payload batchRefreshResponse
	if err := c.do(ctx, http.MethodPost, "/accounts/batch-refresh", body, &payload); err != nil {
		return ports.BatchRefreshResponse{}, fmt.Errorf("batch refresh tokens: %w", err)
	}

	resp := ports.BatchRefreshResponse{Results: make([]ports.BatchRefreshItem, 0, len(payload.Results))}
	for _, item := range payload.Results {
		converted := ports.BatchRefreshItem{
			ID:      domain.AccountID(item.ID),
			Success: item.Success,
			Error:   item.Error,
		}
		if item.Data != nil {
			converted.Data = &ports.RefreshData{
				Token:                     item.Data.Token,
				TokenExpiresAt:            item.Data.ExpiresAt,
				PlanName:                  item.Data.PlanName,
				UsedQuota:                 item.Data.UsedQuota,
				TotalQuota:                item.Data.TotalQuota,
				SubscriptionActive:        item.Data.SubscriptionActive,
				SubscriptionExpiresAtUnix: item.Data.SubscriptionExpiresAt,
				IsDisabled:                item.Data.IsDisabled,
				IsTeamOwner:               item.Data.IsTeamOwner,
				LastQuotaUpdate:           item.Data.LastQuotaUpdate,
			}
		}
		resp.Results = append(resp.Results, converted)
	}
	return resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return decodeAPIError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	detail := resp.Status
	if err == nil && json.Unmarshal(data, &payload) == nil && payload.Error != "" {
		detail = fmt.Sprintf("%s: %s", resp.Status, payload.Error)
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", detail, domain.ErrAccountNotFound)
	case http.StatusConflict:
		return fmt.Errorf("%s: %w", detail, domain.ErrDuplicateAccount)
	default:
		return errors.New(detail)
	}
}

func idsToStrings(ids []domain.AccountID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, string(id))
	}
	return out
}

type accountDTO struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	Nickname      string     `json:"nickname"`
	Tags          []string   `json:"tags"`
	Group         *string    `json:"group,omitempty"`
	Status        string     `json:"status"`
	StatusMessage string     `json:"status_message,omitempty"`
	Token         string     `json:"token,omitempty"`
	TokenExpires  *time.Time `json:"token_expires_at,omitempty"`

	PlanName              string     `json:"plan_name,omitempty"`
	IsDisabled            *bool      `json:"is_disabled,omitempty"`
	IsTeamOwner           *bool      `json:"is_team_owner,omitempty"`
	SubscriptionActive    *bool      `json:"subscription_active,omitempty"`
	SubscriptionExpiresAt *time.Time `json:"subscription_expires_at,omitempty"`

	UsedQuota       *int64     `json:"used_quota,omitempty"`
	TotalQuota      *int64     `json:"total_quota,omitempty"`
	LastQuotaUpdate *time.Time `json:"last_quota_update,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (d accountDTO) toDomain() domain.Account {
	account := domain.Account{
		ID:                    domain.AccountID(d.ID),
		Email:                 d.Email,
		Nickname:              d.Nickname,
		Tags:                  d.Tags,
		Status:                domain.AccountStatus(d.Status),
		StatusMessage:         d.StatusMessage,
		Token:                 d.Token,
		TokenExpiresAt:        d.TokenExpires,
		PlanName:              d.PlanName,
		IsDisabled:            d.IsDisabled,
		IsTeamOwner:           d.IsTeamOwner,
		SubscriptionActive:    d.SubscriptionActive,
		SubscriptionExpiresAt: d.SubscriptionExpiresAt,
		UsedQuota:             d.UsedQuota,
		TotalQuota:            d.TotalQuota,
		LastQuotaUpdate:       d.LastQuotaUpdate,
		CreatedAt:             d.CreatedAt,
	}
	if d.Group != nil {
		account.Group = *d.Group
	}
	return account
}

func fromDomain(account domain.Account) accountDTO {
	dto := accountDTO{
		ID:                    string(account.ID),
		Email:                 account.Email,
		Nickname:              account.Nickname,
		Tags:                  account.Tags,
		Status:                string(account.Status),
		StatusMessage:         account.StatusMessage,
		Token:                 account.Token,
		TokenExpires:          account.TokenExpiresAt,
		PlanName:              account.PlanName,
		IsDisabled:            account.IsDisabled,
		IsTeamOwner:           account.IsTeamOwner,
		SubscriptionActive:    account.SubscriptionActive,
		SubscriptionExpiresAt: account.SubscriptionExpiresAt,
		UsedQuota:             account.UsedQuota,
		TotalQuota:            account.TotalQuota,
		LastQuotaUpdate:       account.LastQuotaUpdate,
		CreatedAt:             account.CreatedAt,
	}
	if account.Group != "" {
		dto.Group = &account.Group
	}
	return dto
}

type createAccountRequest struct {
	Email    string   `json:"email"`
	Nickname string   `json:"nickname"`
	Tags     []string `json:"tags"`
	Group    *string  `json:"group,omitempty"`
}

type batchDeleteRequest struct {
	IDs []string `json:"ids"`
}

type batchDeleteResponse struct {
	FailedIDs []string `json:"failed_ids"`
}

type refreshResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`

	Token                 string     `json:"token,omitempty"`
	ExpiresAt             *time.Time `json:"expires_at,omitempty"`
	PlanName              string     `json:"plan_name,omitempty"`
	UsedQuota             *int64     `json:"used_quota,omitempty"`
	TotalQuota            *int64     `json:"total_quota,omitempty"`
	SubscriptionExpiresAt *time.Time `json:"subscription_expires_at,omitempty"`
	IsDisabled            *bool      `json:"is_disabled,omitempty"`
	IsTeamOwner           *bool      `json:"is_team_owner,omitempty"`
}

type batchRefreshRequest struct {
	IDs         []string `json:"ids"`
	Concurrency int      `json:"concurrency,omitempty"`
}

type batchRefreshResponse struct {
	Results []batchRefreshItem `json:"results"`
}

type batchRefreshItem struct {
	ID      string            `json:"id"`
	Success bool              `json:"success"`
	Error   string            `json:"error,omitempty"`
	Data    *batchRefreshData `json:"data,omitempty"`
}

type batchRefreshData struct {
	Token     string     `json:"token,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	PlanName  string     `json:"plan_name,omitempty"`

	UsedQuota          *int64 `json:"used_quota,omitempty"`
	TotalQuota         *int64 `json:"total_quota,omitempty"`
	SubscriptionActive *bool  `json:"subscription_active,omitempty"`
	// Epoch seconds; converted to a timestamp when merged locally.
	SubscriptionExpiresAt int64 `json:"subscription_expires_at,omitempty"`

	IsDisabled      *bool      `json:"is_disabled,omitempty"`
	IsTeamOwner     *bool      `json:"is_team_owner,omitempty"`
	LastQuotaUpdate *time.Time `json:"last_quota_update,omitempty"`
}
