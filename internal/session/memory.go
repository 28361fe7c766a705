package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore はテスト・ローカル開発用のインメモリ実装です。
type MemoryStore struct {
	mu   sync.Mutex
	ttl  time.Duration
	data map[string]memoryEntry
}

type memoryEntry struct {
	state     State
	expiresAt time.Time
}

// NewMemoryStore は空の MemoryStore を作成します。ttl が 0 の場合は無期限です。
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:  ttl,
		data: make(map[string]memoryEntry),
	}
}

func (s *MemoryStore) Load(ctx context.Context, token string) (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.data[token]
	if !ok {
		return nil, nil
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		delete(s.data, token)
		return nil, nil
	}
	// expiresAt は Save のたびに伸びるため、発行時刻からの上限もここで検査する
	if s.ttl > 0 && time.Since(entry.state.IssuedAt) > s.ttl {
		delete(s.data, token)
		return nil, nil
	}
	state := entry.state
	return &state, nil
}

func (s *MemoryStore) Create(ctx context.Context) (string, *State, error) {
	state, err := newState()
	if err != nil {
		return "", nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		token, err := NewToken()
		if err != nil {
			return "", nil, err
		}
		if _, ok := s.data[token]; ok {
			continue
		}
		s.data[token] = memoryEntry{state: *state, expiresAt: s.expiry()}
		return token, state, nil
	}
}

func (s *MemoryStore) Save(ctx context.Context, token string, state *State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[token] = memoryEntry{state: *state, expiresAt: s.expiry()}
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, token)
	return nil
}

func (s *MemoryStore) expiry() time.Time {
	if s.ttl <= 0 {
		return time.Time{}
	}
	return time.Now().Add(s.ttl)
}
