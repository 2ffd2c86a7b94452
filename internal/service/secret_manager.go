package service

import (
	"context"
	"fmt"

	"app/internal/config"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/api/option"
)

// SecretManagerService resolves provider credentials that are not supplied
// through the environment. Keys are read once at startup; there is no
// in-process refresh.
type SecretManagerService interface {
	GetProviderKey(ctx context.Context, provider string) (string, error)
	Close() error
}

type secretManagerService struct {
	client    *secretmanager.Client
	projectID string
}

// NewSecretManagerService creates a Secret Manager client for the configured
// GCP project.
func NewSecretManagerService(ctx context.Context, cfg *config.Config) (SecretManagerService, error) {
	if cfg.GCPProjectID == "" {
		return nil, fmt.Errorf("GCP Project ID is not set for the current environment")
	}

	var opts []option.ClientOption
	client, err := secretmanager.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Secret Manager client: %w", err)
	}

	return &secretManagerService{
		client:    client,
		projectID: cfg.GCPProjectID,
	}, nil
}

// GetProviderKey reads the latest version of the API key secret for the
// named provider ("openai", "image", "video").
func (s *secretManagerService) GetProviderKey(ctx context.Context, provider string) (string, error) {
	resourceName := fmt.Sprintf("projects/%s/secrets/%s-api-key/versions/latest", s.projectID, provider)

	result, err := s.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: resourceName,
	})
	if err != nil {
		return "", fmt.Errorf("failed to access secret version for provider %s: %w", provider, err)
	}

	return string(result.Payload.Data), nil
}

func (s *secretManagerService) Close() error {
	return s.client.Close()
}
