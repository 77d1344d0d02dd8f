package secrets

import (
	"context"
	"errors"
	"sync"

	"feedback-insights-demo/backend/pkg/logger"
)

// Manager resolves secrets such as the classifier API key and the JWT
// signing key from an external store, falling back to the environment.
type Manager interface {
	GetSecret(ctx context.Context, key string) (string, error)
	GetSecretWithDefault(ctx context.Context, key, defaultValue string) string
}

var (
	defaultManager Manager
	managerOnce    sync.Once

	ErrManagerNotInitialized = errors.New("secrets manager not initialized")
)

// Init sets up the process-wide manager. Safe to call more than once; only
// the first call does work.
func Init(log *logger.Logger) error {
	var err error
	managerOnce.Do(func() {
		manager, initErr := NewVaultManager(log)
		if initErr != nil {
			err = initErr
			return
		}
		defaultManager = manager
	})
	return err
}

func GetSecret(ctx context.Context, key string) (string, error) {
	if defaultManager == nil {
		return "", ErrManagerNotInitialized
	}
	return defaultManager.GetSecret(ctx, key)
}

func GetSecretWithDefault(ctx context.Context, key, defaultValue string) string {
	if defaultManager == nil {
		return defaultValue
	}
	return defaultManager.GetSecretWithDefault(ctx, key, defaultValue)
}

// SetManager swaps the process-wide manager, primarily for tests.
func SetManager(manager Manager) {
	defaultManager = manager
}
