package talent

import (
	"context"
	"fmt"
	"time"

	models "github.com/BANSEOKCHA/my-yks-app/internal/models"
	redis "github.com/redis/go-redis/v9"
)

const (
	leaderboardKey = "talent:leaderboard"
	namesKey       = "talent:names"
)

// Leaderboard cache: a sorted set of scores by uid plus a hash of names
type CacheService struct {
	client *redis.Client
}

func NewCacheService(addr string, user string, pwd string) (*CacheService, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis address is not set")
	}
	db := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    pwd,
		Username:    user,
		DB:          0,
		MaxRetries:  5,
		DialTimeout: 10 * time.Second,
	})
	err := db.Ping(context.Background()).Err()
	if err != nil {
		return nil, err
	}
	return &CacheService{db}, nil
}

// Increments members already on the board; a missing member waits for the
// next rebuild.
func (c *CacheService) IncrScore(ctx context.Context, userID string, delta int64) error {
	return c.client.ZAddArgsIncr(ctx, leaderboardKey, redis.ZAddArgs{
		XX:      true,
		Members: []redis.Z{{Score: float64(delta), Member: userID}},
	}).Err()
}

func (c *CacheService) SetScore(ctx context.Context, entry models.ScoreEntry) error {
	pipe := c.client.TxPipeline()
	pipe.ZAdd(ctx, leaderboardKey, redis.Z{Score: float64(entry.TalentScore), Member: entry.UserID})
	pipe.HSet(ctx, namesKey, entry.UserID, entry.Name)
	_, err := pipe.Exec(ctx)
	return err
}

func (c *CacheService) ReplaceScores(ctx context.Context, scores []models.ScoreEntry) error {
	pipe := c.client.TxPipeline()
	pipe.Del(ctx, leaderboardKey, namesKey)
	if len(scores) > 0 {
		members := make([]redis.Z, 0, len(scores))
		names := make(map[string]any, len(scores))
		for _, s := range scores {
			members = append(members, redis.Z{Score: float64(s.TalentScore), Member: s.UserID})
			names[s.UserID] = s.Name
		}
		pipe.ZAdd(ctx, leaderboardKey, members...)
		pipe.HSet(ctx, namesKey, names)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Highest scores first; limit <= 0 returns the whole board
func (c *CacheService) TopScores(ctx context.Context, limit int64) ([]models.ScoreEntry, error) {
	stop := limit - 1
	if limit <= 0 {
		stop = -1
	}
	top, err := c.client.ZRevRangeWithScores(ctx, leaderboardKey, 0, stop).Result()
	if err != nil {
		return nil, err
	}
	if len(top) == 0 {
		return nil, nil
	}
	uids := make([]string, 0, len(top))
	for _, z := range top {
		uids = append(uids, fmt.Sprint(z.Member))
	}
	names, err := c.client.HMGet(ctx, namesKey, uids...).Result()
	if err != nil {
		return nil, err
	}
	entries := make([]models.ScoreEntry, 0, len(top))
	for i, z := range top {
		entry := models.ScoreEntry{UserID: uids[i], TalentScore: int64(z.Score)}
		if name, ok := names[i].(string); ok {
			entry.Name = name
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (c *CacheService) RemoveScore(ctx context.Context, userID string) error {
	pipe := c.client.TxPipeline()
	pipe.ZRem(ctx, leaderboardKey, userID)
	pipe.HDel(ctx, namesKey, userID)
	_, err := pipe.Exec(ctx)
	return err
}

func (c *CacheService) Close() error {
	return c.client.Close()
}
