//go:build integration

package vault

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcvault "github.com/testcontainers/testcontainers-go/modules/vault"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Noel-Teens/pms-server/pkg/config"
)

func TestOverlayAgainstVaultContainer(t *testing.T) {
	ctx := context.Background()

	container, err := tcvault.Run(ctx,
		"hashicorp/vault:1.15",
		tcvault.WithToken("test-token"),
		tcvault.WithInitCommand("kv put secret/pms-server jwt_secret=container-secret viewer_link_secret=viewer"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("Vault server started!").
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	addr, err := container.HttpHostAddress(ctx)
	require.NoError(t, err)

	client, err := NewClient(config.VaultConfig{
		Address:    fmt.Sprintf("http://%s", addr),
		Token:      "test-token",
		KVMount:    "secret",
		SecretPath: "pms-server",
	})
	require.NoError(t, err)

	cfg := &config.Config{}
	applied, err := Overlay(ctx, client, cfg)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{KeyJWTSecret, KeyViewerLinkSecret}, applied)
	require.Equal(t, "container-secret", cfg.JWT.Secret)
	require.Equal(t, "viewer", cfg.Viewer.SignedURLSecret)
}
