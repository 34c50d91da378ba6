package grpc

import (
	context "context"
	"errors"
	"time"

	models "github.com/BANSEOKCHA/my-yks-app/internal/models"
	services "github.com/BANSEOKCHA/my-yks-app/internal/services"
	"go.uber.org/zap"
	grpc "google.golang.org/grpc"
	codes "google.golang.org/grpc/codes"
	status "google.golang.org/grpc/status"
)

type TalentService struct {
	service *services.CommunityService
	logger  *zap.Logger
}

func NewTalentService(service *services.CommunityService, logger *zap.Logger) *TalentService {
	return &TalentService{service, logger}
}

func Status(err error) error {
	var code codes.Code
	switch {
	case errors.Is(err, models.ErrNotFound):
		code = codes.NotFound
	case errors.Is(err, models.ErrAlreadyExists):
		code = codes.AlreadyExists
	case errors.Is(err, models.ErrConflict):
		code = codes.Aborted
	case errors.Is(err, models.ErrInvalidInput):
		code = codes.InvalidArgument
	case errors.Is(err, models.ErrInvalidCode), errors.Is(err, models.ErrForbidden), errors.Is(err, models.ErrDisabled):
		code = codes.PermissionDenied
	case errors.Is(err, models.ErrStorageUnavailable):
		code = codes.Unavailable
	default:
		return status.Error(codes.Internal, "internal error")
	}
	return status.Error(code, err.Error())
}

func (t *TalentService) fail(method string, err error) error {
	st := Status(err)
	if status.Code(st) == codes.Internal || status.Code(st) == codes.Unavailable {
		t.logger.Error("gRPC request failed", zap.String("method", method), zap.Error(err))
	}
	return st
}

func day(d *time.Time, loc *time.Location) string {
	if d == nil {
		return ""
	}
	return d.In(loc).Format(time.DateOnly)
}

// Score and reward days of a member
func (t *TalentService) GetScore(ctx context.Context, in *ScoreRequest) (*ScoreResponse, error) {
	if in.User == "" {
		return nil, status.Error(codes.InvalidArgument, "user is required")
	}
	user, err := t.service.Profile(ctx, in.User)
	if err != nil {
		return nil, t.fail("GetScore", err)
	}
	return &ScoreResponse{
		Score:        user.TalentScore,
		LastPostDate: day(user.LastPostRewardDate, t.service.Location()),
		LastQRDate:   day(user.LastCheckinRewardDate, t.service.Location()),
	}, nil
}

// Reward history, newest first
func (t *TalentService) GetHistory(ctx context.Context, in *HistoryRequest) (*HistoryResponse, error) {
	if in.User == "" {
		return nil, status.Error(codes.InvalidArgument, "user is required")
	}
	_, err := t.service.Profile(ctx, in.User)
	if err != nil {
		return nil, t.fail("GetHistory", err)
	}
	entries, err := t.service.History(ctx, in.User)
	if err != nil {
		return nil, t.fail("GetHistory", err)
	}
	return &HistoryResponse{Entries: entries}, nil
}

func (t *TalentService) CheckIn(ctx context.Context, in *CheckinRequest) (*CheckinResponse, error) {
	if in.User == "" {
		return nil, status.Error(codes.InvalidArgument, "user is required")
	}
	outcome, err := t.service.CheckIn(ctx, in.User, in.Code)
	if err != nil {
		return nil, t.fail("CheckIn", err)
	}
	return &CheckinResponse{Outcome: outcome}, nil
}

func (t *TalentService) Leaderboard(ctx context.Context, in *LeaderboardRequest) (*LeaderboardResponse, error) {
	if in.Limit < 0 {
		return nil, status.Error(codes.InvalidArgument, "limit must not be negative")
	}
	entries, err := t.service.Leaderboard(ctx, in.Limit)
	if err != nil {
		return nil, t.fail("Leaderboard", err)
	}
	return &LeaderboardResponse{Entries: entries}, nil
}

// Logs method and duration of every unary call
func LoggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Info("gRPC",
			zap.String("method", info.FullMethod),
			zap.Duration("duration", time.Since(start)),
			zap.String("code", status.Code(err).String()),
		)
		return resp, err
	}
}
