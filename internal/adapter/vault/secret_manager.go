package vault

import (
	"context"
	"fmt"

	"github.com/hashicorp/vault/api"
)

// SecretManager reads startup secrets from a KV v2 mount.
type SecretManager struct {
	client *api.Client
	mount  string
}

func NewSecretManager(address, token, mount string) (*SecretManager, error) {
	config := api.DefaultConfig()
	config.Address = address

	client, err := api.NewClient(config)
	if err != nil {
		return nil, err
	}

	client.SetToken(token)

	if mount == "" {
		mount = "secret"
	}
	return &SecretManager{client: client, mount: mount}, nil
}

// GetDatabaseURL reads secret/data/database -> connection_string.
func (sm *SecretManager) GetDatabaseURL(ctx context.Context) (string, error) {
	return sm.readString(ctx, "database", "connection_string")
}

// GetJWTSecret reads secret/data/jwt -> secret, the key access tokens are verified with.
func (sm *SecretManager) GetJWTSecret(ctx context.Context) (string, error) {
	return sm.readString(ctx, "jwt", "secret")
}

func (sm *SecretManager) readString(ctx context.Context, path, key string) (string, error) {
	secret, err := sm.client.KVv2(sm.mount).Get(ctx, path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s/%s: %w", sm.mount, path, err)
	}
	val, ok := secret.Data[key].(string)
	if !ok || val == "" {
		return "", fmt.Errorf("secret %s/%s has no %q", sm.mount, path, key)
	}
	return val, nil
}
