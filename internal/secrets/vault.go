// Package secrets reads the token signing secret from Vault.
package secrets

import (
	"context"
	"fmt"

	vault "github.com/hashicorp/vault/api"

	"github.com/alphabot-ai/bloglist/internal/config"
)

// Vault reads string values from a KV version 2 engine.
type Vault struct {
	client *vault.Client
}

// NewVault builds a client from the standard VAULT_* environment
// (VAULT_ADDR, VAULT_TOKEN, ...).
func NewVault() (*Vault, error) {
	client, err := vault.NewClient(vault.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("vault client: %w", err)
	}
	return &Vault{client: client}, nil
}

func NewVaultWithClient(client *vault.Client) *Vault {
	return &Vault{client: client}
}

// Read returns the string stored under key in the secret at mount/path.
func (v *Vault) Read(ctx context.Context, mount, path, key string) (string, error) {
	secret, err := v.client.KVv2(mount).Get(ctx, path)
	if err != nil {
		return "", fmt.Errorf("read %s/%s: %w", mount, path, err)
	}
	raw, ok := secret.Data[key]
	if !ok {
		return "", fmt.Errorf("secret %s/%s has no key %q", mount, path, key)
	}
	value, ok := raw.(string)
	if !ok || value == "" {
		return "", fmt.Errorf("secret %s/%s key %q is not a non-empty string", mount, path, key)
	}
	return value, nil
}

// ResolveSecret returns the token secret cfg points at: the Vault value when
// a path is configured, otherwise cfg.Secret.
func ResolveSecret(ctx context.Context, cfg config.Config, v *Vault) (string, error) {
	if cfg.Vault.Path == "" {
		return cfg.Secret, nil
	}
	if v == nil {
		var err error
		if v, err = NewVault(); err != nil {
			return "", err
		}
	}
	return v.Read(ctx, cfg.Vault.Mount, cfg.Vault.Path, cfg.Vault.Key)
}
