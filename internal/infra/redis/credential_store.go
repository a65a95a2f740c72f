package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"flashmind-student/internal/domain"
	"github.com/redis/go-redis/v9"
)

// CredentialStore keeps browser-session credentials in one Redis hash per
// session ID: HSET student:session:{sid} token .. refreshToken .. user {json}
// The TTL restarts on every save, that is on login and on token refresh.
type CredentialStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCredentialStore(client *redis.Client, ttl time.Duration) *CredentialStore {
	return &CredentialStore{client: client, ttl: ttl}
}

func (s *CredentialStore) Load(ctx context.Context, sid string) (domain.Credentials, bool, error) {
	fields, err := s.client.HGetAll(ctx, s.key(sid)).Result()
	if err != nil {
		return domain.Credentials{}, false, fmt.Errorf("load credentials: %w", err)
	}
	if len(fields) == 0 {
		return domain.Credentials{}, false, nil
	}
	creds := domain.Credentials{
		Token:        fields["token"],
		RefreshToken: fields["refreshToken"],
	}
	if raw := fields["user"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &creds.User); err != nil {
			return domain.Credentials{}, false, fmt.Errorf("%w: decode stored user: %v", domain.ErrCorruptCredentials, err)
		}
	}
	return creds, true, nil
}

func (s *CredentialStore) Save(ctx context.Context, sid string, creds domain.Credentials) error {
	user, err := json.Marshal(creds.User)
	if err != nil {
		return err
	}
	key := s.key(sid)
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key,
		"token", creds.Token,
		"refreshToken", creds.RefreshToken,
		"user", string(user),
	)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}
	return nil
}

func (s *CredentialStore) Clear(ctx context.Context, sid string) error {
	if err := s.client.Del(ctx, s.key(sid)).Err(); err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}
	return nil
}

func (s *CredentialStore) key(sid string) string {
	return "student:session:" + sid
}
