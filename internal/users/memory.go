package users

import (
	"context"
	"sync"
)

// MemoryStore はテスト・ローカル開発用のインメモリ実装です。
// 一意性検査と保存を同一ロック内で行うため、同時登録でも整合します。
type MemoryStore struct {
	mu     sync.Mutex
	byName map[string]*User
	byID   map[string]*User
}

// NewMemoryStore は空の MemoryStore を作成します。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byName: make(map[string]*User),
		byID:   make(map[string]*User),
	}
}

func (s *MemoryStore) Create(ctx context.Context, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byName[user.Username]; ok {
		return ErrDuplicateUsername
	}
	stored := *user
	s.byName[stored.Username] = &stored
	s.byID[stored.ID] = &stored
	return nil
}

func (s *MemoryStore) GetByUsername(ctx context.Context, username string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyUser(s.byName[username]), nil
}

func (s *MemoryStore) GetByID(ctx context.Context, id string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyUser(s.byID[id]), nil
}

func copyUser(u *User) *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
