package talent

import (
	"context"

	models "github.com/BANSEOKCHA/my-yks-app/internal/models"
	"github.com/google/uuid"
)

//go:generate mockgen -destination=./../services/mock_talent_test.go -package=talent . UserStore,HistoryLog,Transactor,ScoreCache,EventPublisher

// Reward state access. CompareAndSet fails with ErrConflict when the stored
// state differs from expected.
type UserStore interface {
	Get(ctx context.Context, userID string) (models.User, error)
	CompareAndSet(ctx context.Context, userID string, expected models.RewardState, next models.RewardState) error
}

type MemberStore interface {
	UserStore
	Create(ctx context.Context, user models.User) error
	List(ctx context.Context) ([]models.User, error)
	SetDisabled(ctx context.Context, userID string, disabled bool) error
}

// Append-only reward history, listed newest first
type HistoryLog interface {
	Append(ctx context.Context, userID string, entry models.HistoryEntry) error
	History(ctx context.Context, userID string) ([]models.HistoryEntry, error)
}

type PostStore interface {
	CreatePost(ctx context.Context, post models.Post) error
	GetPost(ctx context.Context, postID uuid.UUID) (models.Post, error)
	UpdatePostContent(ctx context.Context, postID uuid.UUID, content string) error
	DeletePost(ctx context.Context, postID uuid.UUID) error
	ListPosts(ctx context.Context, filter models.PostFilter) ([]models.Post, error)
}

// Runs fn so that every store write made with the passed context commits or
// rolls back together.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Storage interface {
	MemberStore
	HistoryLog
	PostStore
	Transactor
	Close(ctx context.Context) error
}

type ScoreCache interface {
	IncrScore(ctx context.Context, userID string, delta int64) error
	SetScore(ctx context.Context, entry models.ScoreEntry) error
	ReplaceScores(ctx context.Context, scores []models.ScoreEntry) error
	TopScores(ctx context.Context, limit int64) ([]models.ScoreEntry, error)
	RemoveScore(ctx context.Context, userID string) error
}

type EventPublisher interface {
	PublishRewardGranted(ctx context.Context, event models.RewardGranted) error
}
