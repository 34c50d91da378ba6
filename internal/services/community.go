package talent

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	interf "github.com/BANSEOKCHA/my-yks-app/internal/interfaces"
	models "github.com/BANSEOKCHA/my-yks-app/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	unknownAuthor  = "알 수 없음"
	unassignedCell = "미정"
)

type CommunityConfig struct {
	AdminEmails   []string
	Cells         []string // accepted at signup
	CellOrder     []string // admin member list order
	MinPostLength int
	CheckinSecret string
}

type CommunityService struct {
	logger  *zap.Logger
	cfg     CommunityConfig
	db      interf.Storage
	rewards *RewardService
	cache   interf.ScoreCache
}

func NewCommunityService(logger *zap.Logger, cfg CommunityConfig, db interf.Storage, rewards *RewardService, cache interf.ScoreCache) *CommunityService {
	return &CommunityService{logger, cfg, db, rewards, cache}
}

type SignupRequest struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Cell  string `json:"cell"`
	Phone string `json:"phone"`
}

// New member with a zero score and no reward days
func (s *CommunityService) Signup(ctx context.Context, req SignupRequest) (models.User, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if req.Email == "" || req.Name == "" {
		return models.User{}, fmt.Errorf("email and name are required: %w", models.ErrInvalidInput)
	}
	if req.Cell != "" && len(s.cfg.Cells) > 0 && !slices.Contains(s.cfg.Cells, req.Cell) {
		return models.User{}, fmt.Errorf("unknown cell %q: %w", req.Cell, models.ErrInvalidInput)
	}
	if req.UID == "" {
		req.UID = uuid.NewString()
	}
	role := models.RoleUser
	if slices.ContainsFunc(s.cfg.AdminEmails, func(e string) bool { return strings.EqualFold(e, req.Email) }) {
		role = models.RoleAdmin
	}
	user := models.User{
		UID:       req.UID,
		Email:     req.Email,
		Name:      req.Name,
		Cell:      req.Cell,
		Phone:     req.Phone,
		Role:      role,
		CreatedAt: s.rewards.Now(),
	}
	err := s.db.Create(ctx, user)
	if err != nil {
		return models.User{}, err
	}
	if s.cache != nil {
		err = s.cache.SetScore(ctx, models.ScoreEntry{UserID: user.UID, Name: user.Name})
		if err != nil {
			s.Log(err, "Signup")
		}
	}
	s.logger.Info("member created", zap.String("uid", user.UID), zap.String("role", role))
	return user, nil
}

// Location reward days are counted in
func (s *CommunityService) Location() *time.Location {
	return s.rewards.Engine().Location()
}

func (s *CommunityService) Profile(ctx context.Context, userID string) (models.User, error) {
	return s.db.Get(ctx, userID)
}

type SubmitPostRequest struct {
	MissionType models.MissionType `json:"missionType"`
	Content     string             `json:"content"`
	IsPublic    bool               `json:"isPublic"`
}

func (s *CommunityService) checkContent(content string) error {
	if utf8.RuneCountInString(strings.TrimSpace(content)) < s.cfg.MinPostLength {
		return fmt.Errorf("content must be at least %d characters: %w", s.cfg.MinPostLength, models.ErrInvalidInput)
	}
	return nil
}

// Store the post, then run the daily post bonus exactly once
func (s *CommunityService) SubmitPost(ctx context.Context, userID string, req SubmitPostRequest) (models.Post, models.Outcome, error) {
	if err := s.checkContent(req.Content); err != nil {
		return models.Post{}, models.Outcome{}, err
	}
	if !req.MissionType.Valid() {
		return models.Post{}, models.Outcome{}, fmt.Errorf("unknown mission type %q: %w", req.MissionType, models.ErrInvalidInput)
	}
	user, err := s.db.Get(ctx, userID)
	if err != nil {
		return models.Post{}, models.Outcome{}, err
	}
	if user.Disabled {
		return models.Post{}, models.Outcome{}, fmt.Errorf("user %s: %w", userID, models.ErrDisabled)
	}

	post := models.Post{
		ID:          uuid.New(),
		UserID:      userID,
		MissionType: req.MissionType,
		Content:     req.Content,
		IsPublic:    req.IsPublic,
		CreatedAt:   s.rewards.Now(),
	}
	err = s.db.CreatePost(ctx, post)
	if err != nil {
		return models.Post{}, models.Outcome{}, err
	}
	outcome, err := s.rewards.SubmitPost(ctx, userID, string(req.MissionType))
	if err != nil {
		return post, outcome, err
	}
	return post, outcome, nil
}

func (s *CommunityService) EditPost(ctx context.Context, userID string, postID uuid.UUID, content string) error {
	if err := s.checkContent(content); err != nil {
		return err
	}
	post, err := s.db.GetPost(ctx, postID)
	if err != nil {
		return err
	}
	if post.UserID != userID {
		return fmt.Errorf("post %s: %w", postID, models.ErrForbidden)
	}
	return s.db.UpdatePostContent(ctx, postID, content)
}

func (s *CommunityService) MyPosts(ctx context.Context, userID string) ([]models.Post, error) {
	return s.db.ListPosts(ctx, models.PostFilter{UserID: userID})
}

func (s *CommunityService) History(ctx context.Context, userID string) ([]models.HistoryEntry, error) {
	return s.db.History(ctx, userID)
}

// QR check-in: the scanned code must carry the configured secret
func (s *CommunityService) CheckIn(ctx context.Context, userID string, code string) (models.Outcome, error) {
	if s.cfg.CheckinSecret == "" || subtle.ConstantTimeCompare([]byte(code), []byte(s.cfg.CheckinSecret)) != 1 {
		return models.Outcome{Reason: models.ReasonQRCheckin}, models.ErrInvalidCode
	}
	return s.rewards.CheckIn(ctx, userID)
}

// Post from the post queue
func (s *CommunityService) SubmitPostMessage(ctx context.Context, body []byte) (models.Outcome, error) {
	var msg models.PostMessage
	err := json.Unmarshal(body, &msg)
	if err != nil {
		return models.Outcome{}, fmt.Errorf("post message: %w: %v", models.ErrInvalidInput, err)
	}
	if msg.UserID == "" {
		return models.Outcome{}, fmt.Errorf("post message without userId: %w", models.ErrInvalidInput)
	}
	_, outcome, err := s.SubmitPost(ctx, msg.UserID, SubmitPostRequest{
		MissionType: msg.MissionType,
		Content:     msg.Content,
		IsPublic:    msg.IsPublic,
	})
	return outcome, err
}

// Scan from the kiosk queue. The result always carries the checkin id when
// the message could be decoded.
func (s *CommunityService) CheckInMessage(ctx context.Context, body []byte) (models.CheckinResult, error) {
	var msg models.CheckinMessage
	err := json.Unmarshal(body, &msg)
	if err != nil {
		return models.CheckinResult{}, fmt.Errorf("checkin message: %w: %v", models.ErrInvalidInput, err)
	}
	result := models.CheckinResult{CheckinID: msg.CheckinID}
	outcome, err := s.CheckIn(ctx, msg.UserID, msg.Code)
	if err != nil {
		result.Error = err.Error()
		return result, err
	}
	result.Success = true
	result.Granted = outcome.Granted
	result.Amount = outcome.Amount
	result.Rejection = outcome.Rejection
	return result, nil
}

// Public posts written on today's weekday, shuffled, with author name and cell
func (s *CommunityService) Square(ctx context.Context) ([]models.FeedPost, error) {
	var posts []models.Post
	var users []models.User

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		posts, err = s.db.ListPosts(gctx, models.PostFilter{PublicOnly: true})
		return err
	})
	g.Go(func() error {
		var err error
		users, err = s.db.List(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	authors := make(map[string]models.User, len(users))
	for _, u := range users {
		authors[u.UID] = u
	}

	loc := s.Location()
	today := s.rewards.Now().In(loc).Weekday()
	feed := make([]models.FeedPost, 0, len(posts))
	for _, p := range posts {
		if p.CreatedAt.IsZero() || p.CreatedAt.In(loc).Weekday() != today {
			continue
		}
		fp := models.FeedPost{Post: p, AuthorName: unknownAuthor, AuthorCell: unknownAuthor}
		if u, ok := authors[p.UserID]; ok {
			fp.AuthorName = u.Name
			fp.AuthorCell = u.Cell
			if u.Cell == "" {
				fp.AuthorCell = unassignedCell
			}
		}
		feed = append(feed, fp)
	}
	rand.Shuffle(len(feed), func(i, j int) { feed[i], feed[j] = feed[j], feed[i] })
	return feed, nil
}

// Active members by score, served from the cache when it is populated
func (s *CommunityService) Leaderboard(ctx context.Context, limit int64) ([]models.ScoreEntry, error) {
	if s.cache != nil {
		entries, err := s.cache.TopScores(ctx, limit)
		if err == nil && len(entries) > 0 {
			return entries, nil
		}
		if err != nil {
			s.Log(err, "Leaderboard")
		}
	}
	entries, err := s.ranking(ctx, false)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		err = s.cache.ReplaceScores(ctx, entries)
		if err != nil {
			s.Log(err, "Leaderboard")
		}
	}
	return truncate(entries, limit), nil
}

// Rebuild the cached leaderboard from the store
func (s *CommunityService) RebuildLeaderboard(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	entries, err := s.ranking(ctx, false)
	if err != nil {
		return err
	}
	return s.cache.ReplaceScores(ctx, entries)
}

func (s *CommunityService) ranking(ctx context.Context, includeDisabled bool) ([]models.ScoreEntry, error) {
	users, err := s.db.List(ctx)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(users, func(a, b models.User) int {
		switch {
		case a.TalentScore > b.TalentScore:
			return -1
		case a.TalentScore < b.TalentScore:
			return 1
		}
		return strings.Compare(a.Name, b.Name)
	})
	entries := make([]models.ScoreEntry, 0, len(users))
	for _, u := range users {
		if u.Disabled && !includeDisabled {
			continue
		}
		entries = append(entries, models.ScoreEntry{UserID: u.UID, Name: u.Name, TalentScore: u.TalentScore})
	}
	return entries, nil
}

func truncate[T any](items []T, limit int64) []T {
	if limit > 0 && int64(len(items)) > limit {
		return items[:limit]
	}
	return items
}

// admin

func (s *CommunityService) RequireAdmin(ctx context.Context, callerID string) error {
	caller, err := s.db.Get(ctx, callerID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return fmt.Errorf("caller %s: %w", callerID, models.ErrForbidden)
		}
		return err
	}
	if !caller.IsAdmin() || caller.Disabled {
		return fmt.Errorf("caller %s: %w", callerID, models.ErrForbidden)
	}
	return nil
}

// Non-disabled members by name, grouped in cell order; unknown cells go last
func (s *CommunityService) ActiveMembers(ctx context.Context) ([]models.User, error) {
	users, err := s.db.List(ctx)
	if err != nil {
		return nil, err
	}
	active := slices.DeleteFunc(users, func(u models.User) bool { return u.Disabled })
	slices.SortStableFunc(active, func(a, b models.User) int { return strings.Compare(a.Name, b.Name) })
	slices.SortStableFunc(active, func(a, b models.User) int {
		ia := slices.Index(s.cfg.CellOrder, a.Cell)
		ib := slices.Index(s.cfg.CellOrder, b.Cell)
		switch {
		case ia == -1 && ib == -1:
			return 0
		case ia == -1:
			return 1
		case ib == -1:
			return -1
		}
		return ia - ib
	})
	return active, nil
}

func (s *CommunityService) DisabledMembers(ctx context.Context) ([]models.User, error) {
	users, err := s.db.List(ctx)
	if err != nil {
		return nil, err
	}
	disabled := slices.DeleteFunc(users, func(u models.User) bool { return !u.Disabled })
	slices.SortStableFunc(disabled, func(a, b models.User) int { return strings.Compare(a.Name, b.Name) })
	return disabled, nil
}

func (s *CommunityService) SearchMembers(ctx context.Context, query string) ([]models.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.User{}, nil
	}
	users, err := s.db.List(ctx)
	if err != nil {
		return nil, err
	}
	found := slices.DeleteFunc(users, func(u models.User) bool {
		return u.Disabled || !(strings.Contains(u.Name, query) || strings.Contains(u.Email, query))
	})
	return found, nil
}

func (s *CommunityService) AddScore(ctx context.Context, userID string, points int64) (models.RewardState, error) {
	if points <= 0 {
		return models.RewardState{}, fmt.Errorf("points must be positive: %w", models.ErrInvalidInput)
	}
	return s.rewards.Adjust(ctx, userID, points)
}

func (s *CommunityService) DisableMember(ctx context.Context, userID string) error {
	err := s.db.SetDisabled(ctx, userID, true)
	if err != nil {
		return err
	}
	if s.cache != nil {
		err = s.cache.RemoveScore(ctx, userID)
		if err != nil {
			s.Log(err, "DisableMember")
		}
	}
	s.logger.Info("member disabled", zap.String("uid", userID))
	return nil
}

// Every post, private ones included, newest first
func (s *CommunityService) AllPosts(ctx context.Context) ([]models.Post, error) {
	return s.db.ListPosts(ctx, models.PostFilter{})
}

// Remove a post and take one point back from its author
func (s *CommunityService) DeletePost(ctx context.Context, postID uuid.UUID) error {
	post, err := s.db.GetPost(ctx, postID)
	if err != nil {
		return err
	}
	_, err = s.rewards.Adjust(ctx, post.UserID, -1)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return err
	}
	return s.db.DeletePost(ctx, postID)
}

// All members by score, disabled included; limit 0 returns everyone
func (s *CommunityService) Ranking(ctx context.Context, limit int64) ([]models.ScoreEntry, error) {
	entries, err := s.ranking(ctx, true)
	if err != nil {
		return nil, err
	}
	return truncate(entries, limit), nil
}

func (s *CommunityService) Log(err error, service string) {
	s.logger.Error("Community service",
		zap.String("service", service),
		zap.Error(err),
	)
}
