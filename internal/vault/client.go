package vault

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/vault/api"

	"ultra-eval/internal/config"
)

// Client wraps the HashiCorp Vault API for reading provider credentials
// (model API key, SMTP password) from a KV v2 secret.
type Client struct {
	client *api.Client
	mount  string
}

// ProviderSecrets holds the credentials read from Vault. Empty fields mean
// the secret did not carry that key and the environment value stands.
type ProviderSecrets struct {
	OpenAIAPIKey string
	SMTPPassword string
}

// NewClient creates a new Vault client
func NewClient(cfg *config.VaultConfig) (*Client, error) {
	apiConfig := api.DefaultConfig()
	apiConfig.Address = cfg.Address

	client, err := api.NewClient(apiConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}

	client.SetToken(cfg.Token)

	return &Client{
		client: client,
		mount:  cfg.Mount,
	}, nil
}

// GetProviderSecrets reads provider credentials from a KV v2 path
func (c *Client) GetProviderSecrets(ctx context.Context, secretPath string) (*ProviderSecrets, error) {
	secret, err := c.client.KVv2(c.mount).Get(ctx, secretPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret %s: %w", secretPath, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("secret %s not found", secretPath)
	}

	secrets := &ProviderSecrets{}
	if v, ok := secret.Data["openai_api_key"].(string); ok {
		secrets.OpenAIAPIKey = v
	}
	if v, ok := secret.Data["smtp_password"].(string); ok {
		secrets.SMTPPassword = v
	}

	return secrets, nil
}

// Health checks Vault health status
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	health, err := c.client.Sys().HealthWithContext(ctx)
	if err != nil {
		return fmt.Errorf("vault health check failed: %w", err)
	}

	if !health.Initialized {
		return fmt.Errorf("vault is not initialized")
	}
	if health.Sealed {
		return fmt.Errorf("vault is sealed")
	}

	return nil
}
