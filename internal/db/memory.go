package talent

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	models "github.com/BANSEOKCHA/my-yks-app/internal/models"
	"github.com/google/uuid"
)

type txKey struct{}

// In-process storage for local runs and tests
type MemoryDB struct {
	txMu    sync.Mutex
	mu      sync.RWMutex
	users   map[string]models.User
	history map[string][]models.HistoryEntry
	posts   map[uuid.UUID]models.Post
}

func NewMemoryDB() *MemoryDB {
	return &MemoryDB{
		users:   make(map[string]models.User),
		history: make(map[string][]models.HistoryEntry),
		posts:   make(map[uuid.UUID]models.Post),
	}
}

// Transactions run one at a time. Writes outside a transaction wait for the
// running one so a rollback never drops them.
func (m *MemoryDB) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}
	m.txMu.Lock()
	defer m.txMu.Unlock()

	users, history, posts := m.snapshot()
	err := fn(context.WithValue(ctx, txKey{}, true))
	if err != nil {
		m.mu.Lock()
		m.users, m.history, m.posts = users, history, posts
		m.mu.Unlock()
	}
	return err
}

func (m *MemoryDB) snapshot() (map[string]models.User, map[string][]models.HistoryEntry, map[uuid.UUID]models.Post) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	history := make(map[string][]models.HistoryEntry, len(m.history))
	for k, v := range m.history {
		history[k] = slices.Clone(v)
	}
	return maps.Clone(m.users), history, maps.Clone(m.posts)
}

func (m *MemoryDB) write(ctx context.Context, fn func() error) error {
	if ctx.Value(txKey{}) == nil {
		m.txMu.Lock()
		defer m.txMu.Unlock()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn()
}

func (m *MemoryDB) Get(ctx context.Context, userID string) (models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[userID]
	if !ok {
		return models.User{}, fmt.Errorf("user %s: %w", userID, models.ErrNotFound)
	}
	return user, nil
}

func (m *MemoryDB) CompareAndSet(ctx context.Context, userID string, expected models.RewardState, next models.RewardState) error {
	return m.write(ctx, func() error {
		user, ok := m.users[userID]
		if !ok {
			return fmt.Errorf("user %s: %w", userID, models.ErrNotFound)
		}
		if !user.RewardState.Equal(expected) {
			return fmt.Errorf("user %s: %w", userID, models.ErrConflict)
		}
		user.RewardState = next
		m.users[userID] = user
		return nil
	})
}

func (m *MemoryDB) Create(ctx context.Context, user models.User) error {
	return m.write(ctx, func() error {
		if _, ok := m.users[user.UID]; ok {
			return fmt.Errorf("user %s: %w", user.UID, models.ErrAlreadyExists)
		}
		for _, u := range m.users {
			if u.Email == user.Email {
				return fmt.Errorf("email %s: %w", user.Email, models.ErrAlreadyExists)
			}
		}
		m.users[user.UID] = user
		return nil
	})
}

func (m *MemoryDB) List(ctx context.Context) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	users := slices.Collect(maps.Values(m.users))
	slices.SortFunc(users, func(a, b models.User) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return users, nil
}

func (m *MemoryDB) SetDisabled(ctx context.Context, userID string, disabled bool) error {
	return m.write(ctx, func() error {
		user, ok := m.users[userID]
		if !ok {
			return fmt.Errorf("user %s: %w", userID, models.ErrNotFound)
		}
		user.Disabled = disabled
		m.users[userID] = user
		return nil
	})
}

func (m *MemoryDB) Append(ctx context.Context, userID string, entry models.HistoryEntry) error {
	return m.write(ctx, func() error {
		if _, ok := m.users[userID]; !ok {
			return fmt.Errorf("user %s: %w", userID, models.ErrNotFound)
		}
		m.history[userID] = append(m.history[userID], entry)
		return nil
	})
}

// newest first
func (m *MemoryDB) History(ctx context.Context, userID string) ([]models.HistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entries := slices.Clone(m.history[userID])
	slices.Reverse(entries)
	slices.SortStableFunc(entries, func(a, b models.HistoryEntry) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return entries, nil
}

func (m *MemoryDB) CreatePost(ctx context.Context, post models.Post) error {
	return m.write(ctx, func() error {
		if _, ok := m.posts[post.ID]; ok {
			return fmt.Errorf("post %s: %w", post.ID, models.ErrAlreadyExists)
		}
		m.posts[post.ID] = post
		return nil
	})
}

func (m *MemoryDB) GetPost(ctx context.Context, postID uuid.UUID) (models.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	post, ok := m.posts[postID]
	if !ok {
		return models.Post{}, fmt.Errorf("post %s: %w", postID, models.ErrNotFound)
	}
	return post, nil
}

func (m *MemoryDB) UpdatePostContent(ctx context.Context, postID uuid.UUID, content string) error {
	return m.write(ctx, func() error {
		post, ok := m.posts[postID]
		if !ok {
			return fmt.Errorf("post %s: %w", postID, models.ErrNotFound)
		}
		post.Content = content
		m.posts[postID] = post
		return nil
	})
}

func (m *MemoryDB) DeletePost(ctx context.Context, postID uuid.UUID) error {
	return m.write(ctx, func() error {
		if _, ok := m.posts[postID]; !ok {
			return fmt.Errorf("post %s: %w", postID, models.ErrNotFound)
		}
		delete(m.posts, postID)
		return nil
	})
}

// newest first
func (m *MemoryDB) ListPosts(ctx context.Context, filter models.PostFilter) ([]models.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	posts := make([]models.Post, 0)
	for _, p := range m.posts {
		if filter.UserID != "" && p.UserID != filter.UserID {
			continue
		}
		if filter.PublicOnly && !p.IsPublic {
			continue
		}
		posts = append(posts, p)
	}
	slices.SortFunc(posts, func(a, b models.Post) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return posts, nil
}

func (m *MemoryDB) Close(ctx context.Context) error {
	return nil
}
