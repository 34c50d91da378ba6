package talent

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	db "github.com/BANSEOKCHA/my-yks-app/internal/db"
	models "github.com/BANSEOKCHA/my-yks-app/internal/models"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

type rewardMocks struct {
	users   *MockUserStore
	history *MockHistoryLog
	tx      *MockTransactor
}

func newMockedRewards(t *testing.T, now time.Time, opts ...RewardOption) (*RewardService, rewardMocks) {
	cont := gomock.NewController(t)
	m := rewardMocks{
		users:   NewMockUserStore(cont),
		history: NewMockHistoryLog(cont),
		tx:      NewMockTransactor(cont),
	}
	m.tx.EXPECT().
		WithinTransaction(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, fn func(context.Context) error) error {
			return fn(ctx)
		}).
		AnyTimes()

	opts = append([]RewardOption{WithClock(clockwork.NewFakeClockAt(now))}, opts...)
	serv := NewRewardService(zap.NewNop(), NewRuleEngine(seoul), sundayPolicy(), m.users, m.history, m.tx, opts...)
	return serv, m
}

func TestSubmitPostGrants(t *testing.T) {
	t.Parallel()
	now := at(2024, 3, 10, 21, 0, 0)
	serv, m := newMockedRewards(t, now)
	user := models.User{UID: "u1", RewardState: models.RewardState{TalentScore: 10}}

	m.users.EXPECT().Get(gomock.Any(), "u1").Return(user, nil)
	m.users.EXPECT().
		CompareAndSet(gomock.Any(), "u1", user.RewardState, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, _, next models.RewardState) error {
			require.Equal(t, int64(11), next.TalentScore)
			require.True(t, next.LastPostRewardDate.Equal(at(2024, 3, 10, 0, 0, 0)))
			return nil
		})
	m.history.EXPECT().
		Append(gomock.Any(), "u1", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, entry models.HistoryEntry) error {
			require.Equal(t, int64(1), entry.Amount)
			require.Equal(t, models.ReasonDailyPost, entry.Reason)
			require.Equal(t, "감사나눔", entry.Label)
			require.True(t, entry.CreatedAt.Equal(now))
			return nil
		})

	outcome, err := serv.SubmitPost(context.Background(), "u1", "감사나눔")
	require.NoError(t, err)
	require.True(t, outcome.Granted)
	require.Equal(t, int64(1), outcome.Amount)
	require.Equal(t, int64(11), outcome.TalentScore)
}

func TestSubmitPostRejectedWritesNothing(t *testing.T) {
	t.Parallel()
	serv, m := newMockedRewards(t, at(2024, 3, 10, 21, 0, 0))
	today := at(2024, 3, 10, 0, 0, 0)
	user := models.User{UID: "u1", RewardState: models.RewardState{TalentScore: 10, LastPostRewardDate: &today}}

	m.users.EXPECT().Get(gomock.Any(), "u1").Return(user, nil)

	outcome, err := serv.SubmitPost(context.Background(), "u1", "감사나눔")
	require.NoError(t, err)
	require.False(t, outcome.Granted)
	require.Equal(t, models.RejectAlreadyClaimedToday, outcome.Rejection)
	require.Equal(t, int64(10), outcome.TalentScore)
}

func TestCheckInRetriesOnConflict(t *testing.T) {
	t.Parallel()
	serv, m := newMockedRewards(t, at(2024, 3, 10, 7, 0, 0))
	stale := models.User{UID: "u1", RewardState: models.RewardState{TalentScore: 10}}
	fresh := models.User{UID: "u1", RewardState: models.RewardState{TalentScore: 11}}

	gomock.InOrder(
		m.users.EXPECT().Get(gomock.Any(), "u1").Return(stale, nil),
		m.users.EXPECT().CompareAndSet(gomock.Any(), "u1", stale.RewardState, gomock.Any()).Return(models.ErrConflict),
		m.users.EXPECT().Get(gomock.Any(), "u1").Return(fresh, nil),
		m.users.EXPECT().CompareAndSet(gomock.Any(), "u1", fresh.RewardState, gomock.Any()).Return(nil),
	)
	m.history.EXPECT().Append(gomock.Any(), "u1", gomock.Any()).Return(nil).Times(1)

	outcome, err := serv.CheckIn(context.Background(), "u1")
	require.NoError(t, err)
	require.True(t, outcome.Granted)
	require.Equal(t, int64(16), outcome.TalentScore)
}

func TestCheckInLosesRaceToSameDayClaim(t *testing.T) {
	t.Parallel()
	serv, m := newMockedRewards(t, at(2024, 3, 10, 7, 0, 0))
	today := at(2024, 3, 10, 0, 0, 0)
	stale := models.User{UID: "u1", RewardState: models.RewardState{TalentScore: 10}}
	fresh := models.User{UID: "u1", RewardState: models.RewardState{TalentScore: 15, LastCheckinRewardDate: &today}}

	gomock.InOrder(
		m.users.EXPECT().Get(gomock.Any(), "u1").Return(stale, nil),
		m.users.EXPECT().CompareAndSet(gomock.Any(), "u1", stale.RewardState, gomock.Any()).Return(models.ErrConflict),
		m.users.EXPECT().Get(gomock.Any(), "u1").Return(fresh, nil),
	)

	outcome, err := serv.CheckIn(context.Background(), "u1")
	require.NoError(t, err)
	require.False(t, outcome.Granted)
	require.Equal(t, models.RejectAlreadyClaimedToday, outcome.Rejection)
	require.Equal(t, int64(15), outcome.TalentScore)
}

func TestCheckInRetriesExhausted(t *testing.T) {
	t.Parallel()
	serv, m := newMockedRewards(t, at(2024, 3, 10, 7, 0, 0), WithMaxRetries(2))
	user := models.User{UID: "u1"}

	m.users.EXPECT().Get(gomock.Any(), "u1").Return(user, nil).Times(2)
	m.users.EXPECT().CompareAndSet(gomock.Any(), "u1", gomock.Any(), gomock.Any()).Return(models.ErrConflict).Times(2)

	_, err := serv.CheckIn(context.Background(), "u1")
	require.ErrorIs(t, err, models.ErrConflict)
}

func TestRewardStorageErrors(t *testing.T) {
	t.Parallel()
	unavailable := errors.Join(models.ErrStorageUnavailable, errors.New("connection refused"))

	t.Run("read", func(t *testing.T) {
		serv, m := newMockedRewards(t, at(2024, 3, 10, 7, 0, 0))
		m.users.EXPECT().Get(gomock.Any(), "u1").Return(models.User{}, unavailable)

		_, err := serv.CheckIn(context.Background(), "u1")
		require.ErrorIs(t, err, models.ErrStorageUnavailable)
	})

	t.Run("history", func(t *testing.T) {
		serv, m := newMockedRewards(t, at(2024, 3, 10, 7, 0, 0))
		m.users.EXPECT().Get(gomock.Any(), "u1").Return(models.User{UID: "u1"}, nil)
		m.users.EXPECT().CompareAndSet(gomock.Any(), "u1", gomock.Any(), gomock.Any()).Return(nil)
		m.history.EXPECT().Append(gomock.Any(), "u1", gomock.Any()).Return(unavailable)

		_, err := serv.SubmitPost(context.Background(), "u1", "중보기도")
		require.ErrorIs(t, err, models.ErrStorageUnavailable)
	})

	t.Run("not found", func(t *testing.T) {
		serv, m := newMockedRewards(t, at(2024, 3, 10, 7, 0, 0))
		m.users.EXPECT().Get(gomock.Any(), "ghost").Return(models.User{}, models.ErrNotFound)

		_, err := serv.SubmitPost(context.Background(), "ghost", "중보기도")
		require.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestRewardDisabledMember(t *testing.T) {
	t.Parallel()
	serv, m := newMockedRewards(t, at(2024, 3, 10, 7, 0, 0))
	m.users.EXPECT().Get(gomock.Any(), "u1").Return(models.User{UID: "u1", Disabled: true}, nil)

	_, err := serv.CheckIn(context.Background(), "u1")
	require.ErrorIs(t, err, models.ErrDisabled)
}

func newMemoryRewards(t *testing.T, clock clockwork.Clock, members ...models.User) (*RewardService, *db.MemoryDB) {
	t.Helper()
	store := db.NewMemoryDB()
	for _, u := range members {
		require.NoError(t, store.Create(context.Background(), u))
	}
	serv := NewRewardService(zap.NewNop(), NewRuleEngine(seoul), sundayPolicy(), store, store, store, WithClock(clock))
	return serv, store
}

func member(uid string, score int64) models.User {
	return models.User{
		UID:         uid,
		Email:       uid + "@example.com",
		Name:        uid,
		Role:        models.RoleUser,
		RewardState: models.RewardState{TalentScore: score},
	}
}

func TestSubmitPostEndToEnd(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	serv, store := newMemoryRewards(t, clockwork.NewFakeClockAt(at(2024, 3, 10, 12, 0, 0)), member("u1", 10))

	outcome, err := serv.SubmitPost(ctx, "u1", "감사나눔")
	require.NoError(t, err)
	require.True(t, outcome.Granted)

	user, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, int64(11), user.TalentScore)
	require.True(t, user.LastPostRewardDate.Equal(at(2024, 3, 10, 0, 0, 0)))

	history, err := store.History(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, int64(1), history[0].Amount)
	require.Equal(t, models.ReasonDailyPost, history[0].Reason)

	outcome, err = serv.SubmitPost(ctx, "u1", "감사나눔")
	require.NoError(t, err)
	require.False(t, outcome.Granted)
	require.Equal(t, int64(11), outcome.TalentScore)
}

func TestCheckInEndToEnd(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(at(2024, 3, 10, 7, 0, 0))
	serv, store := newMemoryRewards(t, clock, member("u1", 0))

	outcome, err := serv.CheckIn(ctx, "u1")
	require.NoError(t, err)
	require.True(t, outcome.Granted)
	require.Equal(t, int64(5), outcome.TalentScore)

	before, err := store.Get(ctx, "u1")
	require.NoError(t, err)

	clock.Advance(30 * time.Minute)
	outcome, err = serv.CheckIn(ctx, "u1")
	require.NoError(t, err)
	require.False(t, outcome.Granted)
	require.Equal(t, models.RejectAlreadyClaimedToday, outcome.Rejection)

	after, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	require.True(t, after.RewardState.Equal(before.RewardState))

	history, err := store.History(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, int64(5), history[0].Amount)
	require.Equal(t, models.ReasonQRCheckin, history[0].Reason)
	require.Equal(t, "QR 코드 출석 인증", history[0].Label)

	// next Sunday
	clock.Advance(7 * 24 * time.Hour)
	outcome, err = serv.CheckIn(ctx, "u1")
	require.NoError(t, err)
	require.True(t, outcome.Granted)
	require.Equal(t, int64(10), outcome.TalentScore)
}

func TestConcurrentCheckInGrantsOnce(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	serv, store := newMemoryRewards(t, clockwork.NewFakeClockAt(at(2024, 3, 10, 7, 0, 0)), member("u1", 0))

	const attempts = 16
	var wg sync.WaitGroup
	results := make(chan models.Outcome, attempts)
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcome, err := serv.CheckIn(ctx, "u1")
			if err == nil {
				results <- outcome
			}
		}()
	}
	wg.Wait()
	close(results)

	granted := 0
	for outcome := range results {
		if outcome.Granted {
			granted++
		}
	}
	require.Equal(t, 1, granted)

	user, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, int64(5), user.TalentScore)
	history, err := store.History(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, history, 1)
}

// Holds the first n reads until all of them arrived, so every caller
// decides on the same state.
type racingUsers struct {
	*db.MemoryDB
	n         int32
	reads     atomic.Int32
	arrived   sync.WaitGroup
	conflicts atomic.Int32
}

func newRacingUsers(store *db.MemoryDB, n int) *racingUsers {
	r := &racingUsers{MemoryDB: store, n: int32(n)}
	r.arrived.Add(n)
	return r
}

func (r *racingUsers) Get(ctx context.Context, userID string) (models.User, error) {
	user, err := r.MemoryDB.Get(ctx, userID)
	if r.reads.Add(1) <= r.n {
		r.arrived.Done()
		r.arrived.Wait()
	}
	return user, err
}

func (r *racingUsers) CompareAndSet(ctx context.Context, userID string, expected, next models.RewardState) error {
	err := r.MemoryDB.CompareAndSet(ctx, userID, expected, next)
	if errors.Is(err, models.ErrConflict) {
		r.conflicts.Add(1)
	}
	return err
}

func TestConcurrentCheckInRetriesOnConflict(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	const attempts = 8

	store := db.NewMemoryDB()
	require.NoError(t, store.Create(ctx, member("u1", 0)))
	users := newRacingUsers(store, attempts)

	// no transaction around Get and CompareAndSet, callers race on the stored state
	tx := NewMockTransactor(gomock.NewController(t))
	tx.EXPECT().
		WithinTransaction(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, fn func(context.Context) error) error {
			return fn(ctx)
		}).
		AnyTimes()

	serv := NewRewardService(zap.NewNop(), NewRuleEngine(seoul), sundayPolicy(), users, store, tx,
		WithClock(clockwork.NewFakeClockAt(at(2024, 3, 10, 7, 0, 0))))

	var wg sync.WaitGroup
	outcomes := make(chan models.Outcome, attempts)
	errs := make(chan error, attempts)
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcome, err := serv.CheckIn(ctx, "u1")
			if err != nil {
				errs <- err
				return
			}
			outcomes <- outcome
		}()
	}
	wg.Wait()
	close(outcomes)
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	granted := 0
	for outcome := range outcomes {
		if outcome.Granted {
			granted++
			continue
		}
		require.Equal(t, models.RejectAlreadyClaimedToday, outcome.Rejection)
	}
	require.Equal(t, 1, granted)
	require.Equal(t, int32(attempts-1), users.conflicts.Load())

	user, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, int64(5), user.TalentScore)
	history, err := store.History(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, history, 1)
}

func TestAdjust(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	serv, store := newMemoryRewards(t, clockwork.NewFakeClock(), member("u1", 2))

	state, err := serv.Adjust(ctx, "u1", 3)
	require.NoError(t, err)
	require.Equal(t, int64(5), state.TalentScore)

	state, err = serv.Adjust(ctx, "u1", -10)
	require.NoError(t, err)
	require.Zero(t, state.TalentScore)

	history, err := store.History(ctx, "u1")
	require.NoError(t, err)
	require.Empty(t, history)

	_, err = serv.Adjust(ctx, "ghost", 1)
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestGrantedSideEffects(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cache := newFakeCache()
	events := &fakeEvents{}
	store := db.NewMemoryDB()
	require.NoError(t, store.Create(ctx, member("u1", 4)))
	cache.entries["u1"] = models.ScoreEntry{UserID: "u1", Name: "u1", TalentScore: 4}

	serv := NewRewardService(zap.NewNop(), NewRuleEngine(seoul), sundayPolicy(), store, store, store,
		WithClock(clockwork.NewFakeClockAt(at(2024, 3, 10, 7, 0, 0))),
		WithScoreCache(cache),
		WithEventPublisher(events),
	)

	_, err := serv.CheckIn(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, int64(9), cache.entries["u1"].TalentScore)
	require.Len(t, events.published, 1)
	require.Equal(t, models.ReasonQRCheckin, events.published[0].Reason)
	require.Equal(t, int64(9), events.published[0].TalentScore)

	// rejected attempts publish nothing
	_, err = serv.CheckIn(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, events.published, 1)
}

func TestGrantSideEffectFailuresKeepGrant(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cont := gomock.NewController(t)
	cache := NewMockScoreCache(cont)
	events := NewMockEventPublisher(cont)
	now := at(2024, 3, 10, 7, 0, 0)
	serv, m := newMockedRewards(t, now, WithScoreCache(cache), WithEventPublisher(events))

	user := models.User{UID: "u1", RewardState: models.RewardState{TalentScore: 4}}
	var stored models.RewardState
	m.users.EXPECT().Get(gomock.Any(), "u1").Return(user, nil)
	m.users.EXPECT().
		CompareAndSet(gomock.Any(), "u1", user.RewardState, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, _, next models.RewardState) error {
			stored = next
			return nil
		})
	m.history.EXPECT().Append(gomock.Any(), "u1", gomock.Any()).Return(nil)
	cache.EXPECT().IncrScore(gomock.Any(), "u1", int64(5)).Return(errors.New("redis down"))
	events.EXPECT().
		PublishRewardGranted(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, event models.RewardGranted) error {
			require.Equal(t, models.RewardGranted{
				UserID:      "u1",
				Reason:      models.ReasonQRCheckin,
				Amount:      5,
				TalentScore: 9,
				GrantedAt:   now,
			}, event)
			return errors.New("nats down")
		})

	outcome, err := serv.CheckIn(ctx, "u1")
	require.NoError(t, err)
	require.True(t, outcome.Granted)
	require.Equal(t, int64(9), outcome.TalentScore)

	// a rejection touches neither the cache nor the publisher
	user.RewardState = stored
	m.users.EXPECT().Get(gomock.Any(), "u1").Return(user, nil)
	outcome, err = serv.CheckIn(ctx, "u1")
	require.NoError(t, err)
	require.False(t, outcome.Granted)
	require.Equal(t, models.RejectAlreadyClaimedToday, outcome.Rejection)
}
