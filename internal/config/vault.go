package config

import (
	"fmt"
	"os"

	vaultapi "github.com/hashicorp/vault/api"
)

// SecretOverlay wraps a Vault client used to resolve broker/column-store
// passwords out of band from plain environment variables. It is strictly
// optional: a stage only builds one when VAULT_ADDR is set, and falls
// back to the plain environment values loaded by LoadBase otherwise.
type SecretOverlay struct {
	client *vaultapi.Client
}

// NewSecretOverlay builds a SecretOverlay against the given Vault address,
// authenticated with token. Mirrors the reference stack's SecretManager,
// generalized to the pipeline's broker/store secret shape.
func NewSecretOverlay(address, token string) (*SecretOverlay, error) {
	cfg := vaultapi.DefaultConfig()
	cfg.Address = address

	client, err := vaultapi.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("vault client initialization failed: %w", err)
	}
	client.SetToken(token)

	return &SecretOverlay{client: client}, nil
}

// kv2 reads a KV-v2 secret at path and unwraps the "data" envelope.
func (s *SecretOverlay) kv2(path string) (map[string]interface{}, error) {
	secret, err := s.client.Logical().Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret at %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("no data found at %s", path)
	}
	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected data format at %s", path)
	}
	return data, nil
}

// ApplyBrokerPassword overwrites b.Password with the value at path's
// "broker_password" key, if present. Errors are non-fatal by design —
// secret loading failures fall back to whatever was already in the
// environment-sourced Broker.
func (s *SecretOverlay) ApplyBrokerPassword(b *Broker, path string) error {
	data, err := s.kv2(path)
	if err != nil {
		return err
	}
	if v, ok := data["broker_password"].(string); ok {
		b.Password = v
	}
	return nil
}

// ApplyStorePassword overwrites st.Password with the value at path's
// "store_password" key, if present.
func (s *SecretOverlay) ApplyStorePassword(st *Store, path string) error {
	data, err := s.kv2(path)
	if err != nil {
		return err
	}
	if v, ok := data["store_password"].(string); ok {
		st.Password = v
	}
	return nil
}

// MaybeLoadSecretOverlay returns a SecretOverlay when VAULT_ADDR is set in
// the environment, and nil otherwise. Callers treat a nil overlay as "use
// the plain environment values" — Vault is additive, never required.
func MaybeLoadSecretOverlay() (*SecretOverlay, error) {
	addr := os.Getenv("VAULT_ADDR")
	if addr == "" {
		return nil, nil
	}
	token := os.Getenv("VAULT_TOKEN")
	return NewSecretOverlay(addr, token)
}
