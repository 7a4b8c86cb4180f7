// Package cache holds transient cross-call state: matter chat messages and
// short-lived vendor tokens. With a Redis address configured the state is
// shared across instances; otherwise it lives for the process lifetime only.
package cache

import (
	"context"
	"sync"
	"time"
)

// Message is one chat-style message on a matter. Messages are transient and
// never written to the relational store.
type Message struct {
	ID           string    `json:"id"`
	MatterID     string    `json:"matterId"`
	AuthorUserID string    `json:"authorUserId"`
	AuthorName   string    `json:"authorName,omitempty"`
	Body         string    `json:"body"`
	SentAt       time.Time `json:"sentAt"`
}

// Store is the transient-state interface shared by the Redis and in-process
// implementations.
type Store interface {
	AppendMessage(ctx context.Context, msg Message) error
	ListMessages(ctx context.Context, matterID string, limit int) ([]Message, error)
	SetToken(ctx context.Context, key, value string, ttl time.Duration) error
	// GetToken returns the cached value and whether it is still live.
	GetToken(ctx context.Context, key string) (string, bool, error)
}

// keep at most this many messages per matter.
const maxMessagesPerMatter = 500

// Memory is the in-process fallback.
type Memory struct {
	mu       sync.RWMutex
	messages map[string][]Message
	tokens   map[string]tokenEntry
}

type tokenEntry struct {
	value     string
	expiresAt time.Time
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-process store.
func NewMemory() *Memory {
	return &Memory{
		messages: make(map[string][]Message),
		tokens:   make(map[string]tokenEntry),
	}
}

func (m *Memory) AppendMessage(ctx context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msgs := append(m.messages[msg.MatterID], msg)
	if len(msgs) > maxMessagesPerMatter {
		msgs = msgs[len(msgs)-maxMessagesPerMatter:]
	}
	m.messages[msg.MatterID] = msgs
	return nil
}

func (m *Memory) ListMessages(ctx context.Context, matterID string, limit int) ([]Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	msgs := m.messages[matterID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (m *Memory) SetToken(ctx context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[key] = tokenEntry{value: value, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (m *Memory) GetToken(ctx context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.tokens[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return "", false, nil
	}
	return entry.value, true, nil
}
