package vault

import (
	"context"
	"fmt"

	"github.com/hashicorp/vault/api"
)

// SecretManager reads deployment secrets from a Vault KV v2 mount
type SecretManager struct {
	client     *api.Client
	mountPath  string
	secretPath string
}

func NewSecretManager(address, token, mountPath, secretPath string) (*SecretManager, error) {
	config := api.DefaultConfig()
	config.Address = address

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}

	client.SetToken(token)

	return &SecretManager{client: client, mountPath: mountPath, secretPath: secretPath}, nil
}

// GetDatabaseURL returns the postgres connection string
func (sm *SecretManager) GetDatabaseURL(ctx context.Context) (string, error) {
	return sm.get(ctx, "database_url")
}

func (sm *SecretManager) GetJWTSecret(ctx context.Context) (string, error) {
	return sm.get(ctx, "jwt_secret")
}

func (sm *SecretManager) get(ctx context.Context, key string) (string, error) {
	secret, err := sm.client.KVv2(sm.mountPath).Get(ctx, sm.secretPath)
	if err != nil {
		return "", fmt.Errorf("failed to read secret %s/%s: %w", sm.mountPath, sm.secretPath, err)
	}

	value, ok := secret.Data[key].(string)
	if !ok || value == "" {
		return "", fmt.Errorf("secret %s/%s has no %s", sm.mountPath, sm.secretPath, key)
	}
	return value, nil
}
