package out

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"todoterm/internal/modules/auth/domain"
	apperrors "todoterm/internal/platform/errors"
)

// RedisCredentialStore shares the credential across machines that point at
// the same redis, for headless setups.
type RedisCredentialStore struct {
	client *redis.Client
	key    string
}

func NewRedisCredentialStore(ctx context.Context, url, origin string) (*RedisCredentialStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedisCredentialStoreFromClient(client, origin), nil
}

func NewRedisCredentialStoreFromClient(client *redis.Client, origin string) *RedisCredentialStore {
	return &RedisCredentialStore{client: client, key: redisKey(origin)}
}

func redisKey(origin string) string {
	return "todoterm:" + origin + ":" + domain.TokenKey
}

func (s *RedisCredentialStore) Get(ctx context.Context) (domain.Credential, error) {
	value, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", apperrors.ErrNoCredential
	}
	if err != nil {
		return "", fmt.Errorf("read credential: %w", err)
	}
	credential := domain.Credential(value)
	if !credential.Present() {
		return "", apperrors.ErrNoCredential
	}
	return credential, nil
}

func (s *RedisCredentialStore) Set(ctx context.Context, credential domain.Credential) error {
	if err := s.client.Set(ctx, s.key, string(credential), 0).Err(); err != nil {
		return fmt.Errorf("write credential: %w", err)
	}
	return nil
}

func (s *RedisCredentialStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	return nil
}

func (s *RedisCredentialStore) Close() error {
	return s.client.Close()
}
