package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/windsurf-accounts-cli/internal/domain"
	"github.com/bnema/windsurf-accounts-cli/internal/ports"
)

func TestListAccounts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/accounts", r.URL.Path)
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		_, _ = fmt.Fprint(w, `[
			{"id":"acc-1","email":"one@example.com","nickname":"one","status":"active","group":"team-a","used_quota":3000,"total_quota":10000,"created_at":"2025-01-01T00:00:00Z"},
			{"id":"acc-2","email":"two@example.com","nickname":"two","status":"error","status_message":"locked","created_at":"2025-01-02T00:00:00Z"}
		]`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret-token", server.Client(), 0)

	accounts, err := client.ListAccounts(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 2)

	assert.Equal(t, domain.AccountID("acc-1"), accounts[0].ID)
	assert.Equal(t, "team-a", accounts[0].Group)
	require.NotNil(t, accounts[0].UsedQuota)
	assert.Equal(t, int64(3000), *accounts[0].UsedQuota)
	assert.Equal(t, domain.StatusError, accounts[1].Status)
	assert.Equal(t, "locked", accounts[1].StatusMessage)
}

func TestCreateAccount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/accounts", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "new@example.com", body["email"])
		assert.Equal(t, "team-a", body["group"])

		_, _ = fmt.Fprint(w, `{"id":"acc-9","email":"new@example.com","nickname":"new","status":"active","group":"team-a","created_at":"2025-06-01T00:00:00Z"}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", server.Client(), 0)

	account, err := client.CreateAccount(context.Background(), ports.NewAccount{
		Email:    "new@example.com",
		Nickname: "new",
		Group:    "team-a",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.AccountID("acc-9"), account.ID)
	assert.Equal(t, "team-a", account.Group)
}

func TestUpdateAndDeleteAccountPaths(t *testing.T) {
	var gotMethod, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", server.Client(), 0)

	require.NoError(t, client.UpdateAccount(context.Background(), domain.Account{ID: "acc-1", Email: "one@example.com"}))
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/accounts/acc-1", gotPath)

	require.NoError(t, client.DeleteAccount(context.Background(), "acc-1"))
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/accounts/acc-1", gotPath)
}

func TestDeleteAccountsBatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/accounts/batch-delete", r.URL.Path)

		var body struct {
			IDs []string `json:"ids"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []string{"acc-1", "acc-2"}, body.IDs)

		_, _ = fmt.Fprint(w, `{"failed_ids":["acc-2"]}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", server.Client(), 0)

	result, err := client.DeleteAccountsBatch(context.Background(), []domain.AccountID{"acc-1", "acc-2"})
	require.NoError(t, err)
	assert.Equal(t, []domain.AccountID{"acc-2"}, result.FailedIDs)
}

func TestRefreshTokenSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/accounts/acc-1/refresh", r.URL.Path)
		_, _ = fmt.Fprint(w, `{"success":true,"token":"fresh","expires_at":"2025-06-02T00:00:00Z","plan_name":"pro","used_quota":4000}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", server.Client(), 0)

	result, err := client.RefreshToken(context.Background(), "acc-1")
	require.NoError(t, err)
	require.True(t, result.Success)
	require.NotNil(t, result.Data)
	assert.Equal(t, "fresh", result.Data.Token)
	assert.Equal(t, "pro", result.Data.PlanName)
	require.NotNil(t, result.Data.TokenExpiresAt)
	assert.Equal(t, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), result.Data.TokenExpiresAt.UTC())
}

func TestRefreshTokenFailureCarriesNoData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `{"success":false,"error":"invalid credentials"}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", server.Client(), 0)

	result, err := client.RefreshToken(context.Background(), "acc-1")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "invalid credentials", result.Error)
	assert.Nil(t, result.Data)
}

func TestBatchRefreshTokensCarriesEpochExpiry(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/accounts/batch-refresh", r.URL.Path)

		var body struct {
			IDs         []string `json:"ids"`
			Concurrency int      `json:"concurrency"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []string{"acc-1", "acc-2"}, body.IDs)
		assert.Equal(t, 3, body.Concurrency)

		_, _ = fmt.Fprint(w, `{"results":[
			{"id":"acc-1","success":true,"data":{"token":"t1","subscription_expires_at":1767225600,"subscription_active":true}},
			{"id":"acc-2","success":false,"error":"account locked"}
		]}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", server.Client(), 0)

	resp, err := client.BatchRefreshTokens(context.Background(), []domain.AccountID{"acc-1", "acc-2"}, 3)
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)

	first := resp.Results[0]
	require.True(t, first.Success)
	require.NotNil(t, first.Data)
	assert.Equal(t, int64(1767225600), first.Data.SubscriptionExpiresAtUnix)
	require.NotNil(t, first.Data.SubscriptionActive)
	assert.True(t, *first.Data.SubscriptionActive)

	second := resp.Results[1]
	assert.False(t, second.Success)
	assert.Equal(t, "account locked", second.Error)
	assert.Nil(t, second.Data)
}

func TestErrorResponsesSurfaceServerMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = fmt.Fprint(w, `{"error":"email already registered"}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", server.Client(), 0)

	_, err := client.CreateAccount(context.Background(), ports.NewAccount{Email: "dup@example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email already registered")
	assert.Contains(t, err.Error(), "409")
	assert.ErrorIs(t, err, domain.ErrDuplicateAccount)
}

func TestNotFoundMapsToSentinel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", server.Client(), 0)

	err := client.DeleteAccount(context.Background(), "acc-404")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestErrorResponsesWithoutBodyUseStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", server.Client(), 0)

	err := client.DeleteAccount(context.Background(), "acc-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestRateLimiterHonorsContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `[]`)
	}))
	defer server.Close()

	// One request per hundred seconds with the single burst token already
	// spent forces the second call to wait on the limiter.
	client := NewClient(server.URL, "", server.Client(), 0.01)

	_, err := client.ListAccounts(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = client.ListAccounts(ctx)
	require.Error(t, err)
}
