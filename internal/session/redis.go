package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "session:"

// RedisStore はセッション状態を Redis に保存します。
// 期限切れは Redis の TTL に任せ、Load では redis.Nil を「セッション無し」として扱います。
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore は RedisStore を作成します。
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		rdb: rdb,
		ttl: ttl,
	}
}

// Load はトークンに対応する状態を取得します。未知・期限切れの場合は (nil, nil) です。
func (s *RedisStore) Load(ctx context.Context, token string) (*State, error) {
	if token == "" {
		return nil, nil
	}
	data, err := s.rdb.Get(ctx, sessionKey(token)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	// Save のたびに Redis の TTL は引き直されるため、発行時刻からの
	// 上限はここで検査する。超過したトークンは未知のものと同じ扱い。
	if s.ttl > 0 && time.Since(state.IssuedAt) > s.ttl {
		_ = s.rdb.Del(ctx, sessionKey(token))
		return nil, nil
	}
	return &state, nil
}

// Create は新しい匿名セッションを発行します。トークンの一意性は SetNX で保証します。
func (s *RedisStore) Create(ctx context.Context) (string, *State, error) {
	state, err := newState()
	if err != nil {
		return "", nil, err
	}
	payload, err := json.Marshal(state)
	if err != nil {
		return "", nil, err
	}

	// 256 ビット乱数の衝突は現実には起こらないが、念のため数回だけ引き直す
	for i := 0; i < 3; i++ {
		token, err := NewToken()
		if err != nil {
			return "", nil, err
		}
		ok, err := s.rdb.SetNX(ctx, sessionKey(token), payload, s.ttl).Result()
		if err != nil {
			return "", nil, err
		}
		if ok {
			return token, state, nil
		}
	}
	return "", nil, fmt.Errorf("session token collision")
}

// Save は状態の変更を永続化します。TTL は保存のたびに引き直されます。
func (s *RedisStore) Save(ctx context.Context, token string, state *State) error {
	if token == "" {
		return fmt.Errorf("token is required")
	}
	payload, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, sessionKey(token), payload, s.ttl).Err()
}

// Delete はセッションを破棄します。存在しないトークンでもエラーにしません。
func (s *RedisStore) Delete(ctx context.Context, token string) error {
	return s.rdb.Del(ctx, sessionKey(token)).Err()
}

func sessionKey(token string) string {
	return sessionKeyPrefix + token
}
