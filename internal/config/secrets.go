package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// SecretGetter is the Secrets Manager call used to resolve DATABASE_URL.
type SecretGetter interface {
	GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

type secretPayload struct {
	DatabaseURL string `json:"DATABASE_URL"`
}

// DatabaseURLFromSecret reads the DATABASE_URL key of a JSON secret.
func DatabaseURLFromSecret(ctx context.Context, sm SecretGetter, secretArn string) (string, error) {
	out, err := sm.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{SecretId: &secretArn})
	if err != nil {
		return "", fmt.Errorf("get secret: %w", err)
	}
	if out.SecretString == nil {
		return "", errors.New("secret has no string value")
	}
	var payload secretPayload
	if err := json.Unmarshal([]byte(*out.SecretString), &payload); err != nil {
		return "", fmt.Errorf("parse secret json: %w", err)
	}
	if payload.DatabaseURL == "" {
		return "", errors.New("DATABASE_URL missing in secret")
	}
	return payload.DatabaseURL, nil
}
