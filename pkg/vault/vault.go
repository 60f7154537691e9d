package vault

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/vault/api"

	"github.com/Noel-Teens/pms-server/pkg/config"
)

// Keys read from the KV v2 secret.
const (
	KeyJWTSecret        = "jwt_secret"
	KeyDBPassword       = "db_password"
	KeySMTPPassword     = "smtp_password"
	KeyMinIOSecretKey   = "minio_secret_key"
	KeyViewerLinkSecret = "viewer_link_secret"
)

// Client reads application secrets from a KV v2 mount.
type Client struct {
	kv   *api.KVv2
	path string
}

// NewClient builds a client for the configured address, token and mount.
func NewClient(cfg config.VaultConfig) (*Client, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("vault address and token required")
	}
	vcfg := api.DefaultConfig()
	vcfg.Address = cfg.Address

	client, err := api.NewClient(vcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	client.SetToken(cfg.Token)

	mount := cfg.KVMount
	if mount == "" {
		mount = "secret"
	}
	return &Client{kv: client.KVv2(mount), path: cfg.SecretPath}, nil
}

// Secrets returns the string values stored at the secret path. A missing
// secret yields an empty map.
func (c *Client) Secrets(ctx context.Context) (map[string]string, error) {
	secret, err := c.kv.Get(ctx, c.path)
	if errors.Is(err, api.ErrSecretNotFound) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read secret %s: %w", c.path, err)
	}
	values := make(map[string]string, len(secret.Data))
	for k, v := range secret.Data {
		if s, ok := v.(string); ok && s != "" {
			values[k] = s
		}
	}
	return values, nil
}

// Overlay replaces sensitive config values with those found in Vault and
// returns the keys that were applied.
func Overlay(ctx context.Context, c *Client, cfg *config.Config) ([]string, error) {
	values, err := c.Secrets(ctx)
	if err != nil {
		return nil, err
	}

	targets := []struct {
		key string
		dst *string
	}{
		{KeyJWTSecret, &cfg.JWT.Secret},
		{KeyDBPassword, &cfg.Database.Password},
		{KeySMTPPassword, &cfg.Mail.Password},
		{KeyMinIOSecretKey, &cfg.Storage.MinIO.SecretKey},
		{KeyViewerLinkSecret, &cfg.Viewer.SignedURLSecret},
	}

	applied := make([]string, 0, len(targets))
	for _, t := range targets {
		if v, ok := values[t.key]; ok {
			*t.dst = v
			applied = append(applied, t.key)
		}
	}
	return applied, nil
}
