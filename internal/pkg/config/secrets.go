// internal/pkg/config/secrets.go
package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"golang.org/x/sync/singleflight"
)

// Keys read from a secret bundle. Values override the environment.
const (
	SecretDBPassword    = "DB_PASSWORD"
	SecretRedisPassword = "REDIS_PASSWORD"
	SecretVisionAPIKey  = "VISION_API_KEY"
	SecretAdminTokens   = "ADMIN_TOKENS"
	SecretAWSAccessKey  = "AWS_ACCESS_KEY_ID"
	SecretAWSSecretKey  = "AWS_SECRET_ACCESS_KEY"
)

var secretKeys = []string{
	SecretDBPassword, SecretRedisPassword, SecretVisionAPIKey,
	SecretAdminTokens, SecretAWSAccessKey, SecretAWSSecretKey,
}

var errEmptySecret = errors.New("secret has no string value")

// SecretSource returns the current secret bundle. Missing keys are absent
// from the map rather than empty.
type SecretSource interface {
	Secrets(ctx context.Context) (map[string]string, error)
}

// secretValueGetter is the part of the Secrets Manager client we use.
type secretValueGetter interface {
	GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// AWSSecrets reads a JSON object secret from AWS Secrets Manager and keeps
// it for ttl. Concurrent refreshes share one request.
type AWSSecrets struct {
	client     secretValueGetter
	secretName string
	ttl        time.Duration
	logger     *slog.Logger

	group     singleflight.Group
	mu        sync.RWMutex
	cached    map[string]string
	fetchedAt time.Time
}

// NewAWSSecrets creates a source for secretName using the default AWS
// credential chain.
func NewAWSSecrets(ctx context.Context, region, secretName string, logger *slog.Logger) (*AWSSecrets, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return newAWSSecrets(secretsmanager.NewFromConfig(cfg), secretName, 5*time.Minute, logger), nil
}

func newAWSSecrets(client secretValueGetter, secretName string, ttl time.Duration, logger *slog.Logger) *AWSSecrets {
	return &AWSSecrets{
		client:     client,
		secretName: secretName,
		ttl:        ttl,
		logger:     logger.With(slog.String("component", "secrets")),
	}
}

// Secrets returns the cached bundle, fetching it when older than ttl.
func (s *AWSSecrets) Secrets(ctx context.Context) (map[string]string, error) {
	s.mu.RLock()
	if s.cached != nil && time.Since(s.fetchedAt) < s.ttl {
		out := maps.Clone(s.cached)
		s.mu.RUnlock()
		return out, nil
	}
	s.mu.RUnlock()

	v, err, _ := s.group.Do(s.secretName, func() (interface{}, error) {
		return s.fetch(ctx)
	})
	if err != nil {
		return nil, err
	}
	return maps.Clone(v.(map[string]string)), nil
}

// Invalidate forces the next Secrets call to fetch, e.g. after a rotation.
func (s *AWSSecrets) Invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()
}

func (s *AWSSecrets) fetch(ctx context.Context) (map[string]string, error) {
	out, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId:     aws.String(s.secretName),
		VersionStage: aws.String("AWSCURRENT"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get secret %s: %w", s.secretName, err)
	}
	if out.SecretString == nil {
		return nil, fmt.Errorf("secret %s: %w", s.secretName, errEmptySecret)
	}

	var bundle map[string]string
	if err := json.Unmarshal([]byte(*out.SecretString), &bundle); err != nil {
		return nil, fmt.Errorf("secret %s is not a JSON object of strings: %w", s.secretName, err)
	}

	s.mu.Lock()
	s.cached = bundle
	s.fetchedAt = time.Now()
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "loaded secret bundle",
		slog.String("secret_name", s.secretName),
		slog.Int("keys", len(bundle)))
	return bundle, nil
}

// EnvSecrets reads the known secret keys from the environment.
type EnvSecrets struct{}

func (EnvSecrets) Secrets(context.Context) (map[string]string, error) {
	out := make(map[string]string)
	for _, key := range secretKeys {
		if v := os.Getenv(key); v != "" {
			out[key] = v
		}
	}
	return out, nil
}
