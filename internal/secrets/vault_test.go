package secrets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	vault "github.com/hashicorp/vault/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphabot-ai/bloglist/internal/config"
)

const kvResponse = `{
	"data": {
		"data": {"secret": "from-vault", "other": 42},
		"metadata": {"version": 1, "created_time": "2024-01-01T00:00:00Z", "deletion_time": "", "destroyed": false}
	}
}`

func newTestVault(t *testing.T) *Vault {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/v1/secret/data/bloglist" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("X-Vault-Token") != "test-token" {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"errors":["permission denied"]}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(kvResponse))
	}))
	t.Cleanup(ts.Close)

	cfg := vault.DefaultConfig()
	cfg.Address = ts.URL
	cfg.MaxRetries = 0
	client, err := vault.NewClient(cfg)
	require.NoError(t, err)
	client.SetToken("test-token")
	return NewVaultWithClient(client)
}

func TestRead(t *testing.T) {
	v := newTestVault(t)
	ctx := context.Background()

	got, err := v.Read(ctx, "secret", "bloglist", "secret")
	require.NoError(t, err)
	assert.Equal(t, "from-vault", got)

	_, err = v.Read(ctx, "secret", "bloglist", "missing")
	assert.Error(t, err)

	_, err = v.Read(ctx, "secret", "bloglist", "other")
	assert.Error(t, err, "non-string values are rejected")

	_, err = v.Read(ctx, "secret", "nowhere", "secret")
	assert.Error(t, err)
}

func TestResolveSecret(t *testing.T) {
	ctx := context.Background()

	cfg := config.Defaults()
	cfg.Secret = "plain"
	got, err := ResolveSecret(ctx, cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "plain", got)

	cfg.Vault = config.VaultConfig{Path: "bloglist", Mount: "secret", Key: "secret"}
	got, err = ResolveSecret(ctx, cfg, newTestVault(t))
	require.NoError(t, err)
	assert.Equal(t, "from-vault", got)
}
