package upstream

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, mutate ...func(*Config)) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := Config{BaseURL: srv.URL + "/v1/", Token: "secret"}
	for _, m := range mutate {
		m(&cfg)
	}
	c, err := NewClient(cfg)
	require.NoError(t, err)
	return c
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{"missing", Config{}, ErrConfigMissingBaseURL},
		{"relative", Config{BaseURL: "/api"}, ErrConfigInvalidBaseURL},
		{"scheme", Config{BaseURL: "ftp://example.com"}, ErrConfigInvalidBaseURL},
		{"ok", Config{BaseURL: "https://api.example.com/v1/"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "https://api.example.com/v1", tt.cfg.BaseURL)
			assert.Equal(t, DefaultTimeout, tt.cfg.Timeout)
			assert.Equal(t, int64(DefaultMaxResponseSize), tt.cfg.MaxResponseSize)
		})
	}
}

func TestClient_List(t *testing.T) {
	var gotQuery url.Values
	var gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/products", r.URL.Path)
		gotQuery = r.URL.Query()
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"data":[{"id":"p-1"},{"id":"p-2"}],"pageCount":4,"total":37}`)
	})

	params := url.Values{"page": {"2"}, "limit": {"10"}, "status": {"active.draft"}}
	res, err := c.List(context.Background(), "/products", params)

	require.NoError(t, err)
	assert.Equal(t, params, gotQuery)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Len(t, res.Data, 2)
	assert.JSONEq(t, `{"id":"p-1"}`, string(res.Data[0]))
	assert.Equal(t, 4, res.PageCount)
	assert.Equal(t, int64(37), res.Total)
}

func TestClient_ListEmptyData(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"pageCount":0,"total":0}`)
	})

	res, err := c.List(context.Background(), "/orders", nil)

	require.NoError(t, err)
	assert.NotNil(t, res.Data)
	assert.Empty(t, res.Data)
}

func TestClient_CRUD(t *testing.T) {
	var calls []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.EscapedPath())
		switch r.Method {
		case http.MethodPost, http.MethodPut:
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			body, _ := io.ReadAll(r.Body)
			_, _ = w.Write(body)
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		default:
			_, _ = io.WriteString(w, `{"id":"a b"}`)
		}
	})
	ctx := context.Background()

	got, err := c.Get(ctx, "/sellers", "a b")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"a b"}`, string(got))

	created, err := c.Create(ctx, "/sellers", json.RawMessage(`{"name":"Acme"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Acme"}`, string(created))

	updated, err := c.Update(ctx, "/sellers", "s-1", json.RawMessage(`{"name":"Acme 2"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Acme 2"}`, string(updated))

	require.NoError(t, c.Delete(ctx, "/sellers", "s-1"))

	assert.Equal(t, []string{
		"GET /v1/sellers/a%20b",
		"POST /v1/sellers",
		"PUT /v1/sellers/s-1",
		"DELETE /v1/sellers/s-1",
	}, calls)
}

func TestClient_Config(t *testing.T) {
	stored := `{"zones":{"domestic":{"0-1kg":"4.50"}}}`
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/config/shipping", r.URL.Path)
		if r.Method == http.MethodPut {
			body, _ := io.ReadAll(r.Body)
			stored = string(body)
			w.WriteHeader(http.StatusNoContent)
			return
		}
		_, _ = io.WriteString(w, stored)
	})
	ctx := context.Background()

	var doc map[string]map[string]map[string]string
	require.NoError(t, c.GetConfig(ctx, "shipping", &doc))
	assert.Equal(t, "4.50", doc["zones"]["domestic"]["0-1kg"])

	doc["zones"]["intl"] = map[string]string{"0-1kg": "12"}
	require.NoError(t, c.PutConfig(ctx, "shipping", doc))
	assert.Contains(t, stored, `"intl"`)
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
		wantMsg string
	}{
		{"not found", http.StatusNotFound, `{"message":"no such product"}`, ErrNotFound, "no such product"},
		{"validation", http.StatusUnprocessableEntity, `{"error":"name is required"}`, ErrRequestFailed, "name is required"},
		{"server", http.StatusBadGateway, `bad gateway`, ErrUnavailable, "bad gateway"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := c.Get(context.Background(), "/products", "p-1")

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			var se *StatusError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.status, se.StatusCode)
			assert.Equal(t, tt.wantMsg, se.Message)
		})
	}
}

func TestClient_InvalidJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data": [`)
	})

	_, err := c.List(context.Background(), "/products", nil)

	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestClient_ResponseTooLarge(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data":[`+strings.Repeat(`{"id":"x"},`, 50)+`{}]}`)
	}, func(cfg *Config) {
		cfg.MaxResponseSize = 64
	})

	_, err := c.List(context.Background(), "/products", nil)

	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestClient_Unavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	base := srv.URL
	srv.Close()

	c, err := NewClient(Config{BaseURL: base, Timeout: time.Second})
	require.NoError(t, err)

	_, err = c.List(context.Background(), "/products", nil)

	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestClient_ContextCanceled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.List(ctx, "/products", nil)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestClient_NoTokenNoAuthHeader(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{}`)
	}, func(cfg *Config) {
		cfg.Token = ""
	})

	_, err := c.Get(context.Background(), "/products", "p-1")
	assert.NoError(t, err)
}
