package talent

import (
	"context"
	"errors"
	"fmt"
	"time"

	interf "github.com/BANSEOKCHA/my-yks-app/internal/interfaces"
	models "github.com/BANSEOKCHA/my-yks-app/internal/models"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const DefaultMaxRetries = 3

var rewardsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "talent_rewards_total",
		Help: "Reward evaluations by reason and outcome",
	},
	[]string{"reason", "outcome"},
)

var tracer = otel.Tracer("talent")

type RewardService struct {
	logger  *zap.Logger
	engine  *RuleEngine
	policy  models.CheckinPolicy
	users   interf.UserStore
	history interf.HistoryLog
	tx      interf.Transactor
	cache   interf.ScoreCache
	events  interf.EventPublisher
	clock   clockwork.Clock
	retries int
}

type RewardOption func(*RewardService)

func WithScoreCache(cache interf.ScoreCache) RewardOption {
	return func(s *RewardService) { s.cache = cache }
}

func WithEventPublisher(events interf.EventPublisher) RewardOption {
	return func(s *RewardService) { s.events = events }
}

func WithClock(clock clockwork.Clock) RewardOption {
	return func(s *RewardService) { s.clock = clock }
}

func WithMaxRetries(retries int) RewardOption {
	return func(s *RewardService) {
		if retries > 0 {
			s.retries = retries
		}
	}
}

func NewRewardService(logger *zap.Logger, engine *RuleEngine, policy models.CheckinPolicy,
	users interf.UserStore, history interf.HistoryLog, tx interf.Transactor, opts ...RewardOption) *RewardService {
	s := &RewardService{
		logger:  logger,
		engine:  engine,
		policy:  policy,
		users:   users,
		history: history,
		tx:      tx,
		clock:   clockwork.NewRealClock(),
		retries: DefaultMaxRetries,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RewardService) Engine() *RuleEngine {
	return s.engine
}

func (s *RewardService) Now() time.Time {
	return s.clock.Now()
}

// Daily post bonus. Called once per accepted post; label is the mission type.
func (s *RewardService) SubmitPost(ctx context.Context, userID string, label string) (models.Outcome, error) {
	return s.evaluate(ctx, userID, models.ReasonDailyPost, label, s.engine.EvaluatePostSubmission)
}

// QR check-in bonus under the configured policy
func (s *RewardService) CheckIn(ctx context.Context, userID string) (models.Outcome, error) {
	decide := func(state models.RewardState, now time.Time) models.Decision {
		return s.engine.EvaluateQRCheckin(state, now, s.policy)
	}
	return s.evaluate(ctx, userID, models.ReasonQRCheckin, s.policy.Label, decide)
}

// Read, decide and commit score + day + history entry as one unit. A lost
// compare-and-set is retried on a fresh read up to s.retries attempts.
func (s *RewardService) evaluate(ctx context.Context, userID string, reason models.Reason, label string,
	decide func(models.RewardState, time.Time) models.Decision) (models.Outcome, error) {
	ctx, span := tracer.Start(ctx, "reward."+string(reason),
		trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	for attempt := 1; ; attempt++ {
		var decision models.Decision
		now := s.clock.Now()

		err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
			user, err := s.users.Get(ctx, userID)
			if err != nil {
				return err
			}
			if user.Disabled {
				return fmt.Errorf("user %s: %w", userID, models.ErrDisabled)
			}
			decision = decide(user.RewardState, now)
			if !decision.Granted {
				return nil
			}
			err = s.users.CompareAndSet(ctx, userID, user.RewardState, decision.State)
			if err != nil {
				return err
			}
			return s.history.Append(ctx, userID, models.HistoryEntry{
				ID:        uuid.New(),
				UserID:    userID,
				Amount:    decision.Amount,
				Reason:    reason,
				Label:     label,
				CreatedAt: now,
			})
		})

		if errors.Is(err, models.ErrConflict) && attempt < s.retries {
			s.logger.Debug("reward conflict, retrying",
				zap.String("user", userID),
				zap.String("reason", string(reason)),
				zap.Int("attempt", attempt),
			)
			continue
		}
		if err != nil {
			rewardsTotal.WithLabelValues(string(reason), "error").Inc()
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			s.Log(err, string(reason))
			return models.Outcome{Reason: reason}, err
		}

		outcome := models.Outcome{
			Reason:      reason,
			Granted:     decision.Granted,
			Amount:      decision.Amount,
			Rejection:   decision.Rejection,
			TalentScore: decision.State.TalentScore,
		}
		span.SetAttributes(attribute.Bool("reward.granted", outcome.Granted))
		if !decision.Granted {
			rewardsTotal.WithLabelValues(string(reason), string(decision.Rejection)).Inc()
			return outcome, nil
		}
		rewardsTotal.WithLabelValues(string(reason), "granted").Inc()
		s.granted(ctx, userID, outcome, now)
		return outcome, nil
	}
}

// cache and event side effects; failures are logged, the grant stays committed
func (s *RewardService) granted(ctx context.Context, userID string, outcome models.Outcome, now time.Time) {
	if s.cache != nil {
		err := s.cache.IncrScore(ctx, userID, outcome.Amount)
		if err != nil {
			s.Log(err, "IncrScore")
		}
	}
	if s.events != nil {
		err := s.events.PublishRewardGranted(ctx, models.RewardGranted{
			UserID:      userID,
			Reason:      outcome.Reason,
			Amount:      outcome.Amount,
			TalentScore: outcome.TalentScore,
			GrantedAt:   now,
		})
		if err != nil {
			s.Log(err, "PublishRewardGranted")
		}
	}
}

// Administrative score change. The score never drops below zero and no
// history entry is written.
func (s *RewardService) Adjust(ctx context.Context, userID string, delta int64) (models.RewardState, error) {
	for attempt := 1; ; attempt++ {
		user, err := s.users.Get(ctx, userID)
		if err != nil {
			return models.RewardState{}, err
		}
		next := user.RewardState
		next.TalentScore += delta
		if next.TalentScore < 0 {
			next.TalentScore = 0
		}
		if next.Equal(user.RewardState) {
			return next, nil
		}
		err = s.users.CompareAndSet(ctx, userID, user.RewardState, next)
		if errors.Is(err, models.ErrConflict) && attempt < s.retries {
			continue
		}
		if err != nil {
			s.Log(err, "Adjust")
			return models.RewardState{}, err
		}
		if s.cache != nil && !user.Disabled {
			err = s.cache.SetScore(ctx, models.ScoreEntry{UserID: userID, Name: user.Name, TalentScore: next.TalentScore})
			if err != nil {
				s.Log(err, "SetScore")
			}
		}
		return next, nil
	}
}

func (s *RewardService) Log(err error, service string) {
	s.logger.Error("Reward service",
		zap.String("service", service),
		zap.Error(err),
	)
}
