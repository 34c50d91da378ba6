package grpc

import (
	context "context"

	models "github.com/BANSEOKCHA/my-yks-app/internal/models"
	grpc "google.golang.org/grpc"
)

const ServiceName = "talent.v1.Talent"

const (
	Talent_GetScore_FullMethodName    = "/" + ServiceName + "/GetScore"
	Talent_GetHistory_FullMethodName  = "/" + ServiceName + "/GetHistory"
	Talent_CheckIn_FullMethodName     = "/" + ServiceName + "/CheckIn"
	Talent_Leaderboard_FullMethodName = "/" + ServiceName + "/Leaderboard"
)

type ScoreRequest struct {
	User string `json:"user"`
}

type ScoreResponse struct {
	Score        int64  `json:"score"`
	LastPostDate string `json:"lastPostDate,omitempty"`
	LastQRDate   string `json:"lastQRDate,omitempty"`
}

type HistoryRequest struct {
	User string `json:"user"`
}

type HistoryResponse struct {
	Entries []models.HistoryEntry `json:"entries"`
}

type CheckinRequest struct {
	User string `json:"user"`
	Code string `json:"code"`
}

type CheckinResponse struct {
	Outcome models.Outcome `json:"outcome"`
}

type LeaderboardRequest struct {
	Limit int64 `json:"limit"`
}

type LeaderboardResponse struct {
	Entries []models.ScoreEntry `json:"entries"`
}

type TalentServer interface {
	GetScore(context.Context, *ScoreRequest) (*ScoreResponse, error)
	GetHistory(context.Context, *HistoryRequest) (*HistoryResponse, error)
	CheckIn(context.Context, *CheckinRequest) (*CheckinResponse, error)
	Leaderboard(context.Context, *LeaderboardRequest) (*LeaderboardResponse, error)
}

func RegisterTalentServer(s grpc.ServiceRegistrar, srv TalentServer) {
	s.RegisterService(&Talent_ServiceDesc, srv)
}

func _Talent_GetScore_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ScoreRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TalentServer).GetScore(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Talent_GetScore_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(TalentServer).GetScore(ctx, req.(*ScoreRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Talent_GetHistory_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(HistoryRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TalentServer).GetHistory(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Talent_GetHistory_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(TalentServer).GetHistory(ctx, req.(*HistoryRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Talent_CheckIn_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(CheckinRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TalentServer).CheckIn(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Talent_CheckIn_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(TalentServer).CheckIn(ctx, req.(*CheckinRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Talent_Leaderboard_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(LeaderboardRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TalentServer).Leaderboard(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Talent_Leaderboard_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(TalentServer).Leaderboard(ctx, req.(*LeaderboardRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var Talent_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TalentServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetScore", Handler: _Talent_GetScore_Handler},
		{MethodName: "GetHistory", Handler: _Talent_GetHistory_Handler},
		{MethodName: "CheckIn", Handler: _Talent_CheckIn_Handler},
		{MethodName: "Leaderboard", Handler: _Talent_Leaderboard_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "talent.json",
}

type TalentClient interface {
	GetScore(ctx context.Context, in *ScoreRequest, opts ...grpc.CallOption) (*ScoreResponse, error)
	GetHistory(ctx context.Context, in *HistoryRequest, opts ...grpc.CallOption) (*HistoryResponse, error)
	CheckIn(ctx context.Context, in *CheckinRequest, opts ...grpc.CallOption) (*CheckinResponse, error)
	Leaderboard(ctx context.Context, in *LeaderboardRequest, opts ...grpc.CallOption) (*LeaderboardResponse, error)
}

type talentClient struct {
	cc grpc.ClientConnInterface
}

func NewTalentClient(cc grpc.ClientConnInterface) TalentClient {
	return &talentClient{cc}
}

func (c *talentClient) invoke(ctx context.Context, method string, in any, out any, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	return c.cc.Invoke(ctx, method, in, out, opts...)
}

func (c *talentClient) GetScore(ctx context.Context, in *ScoreRequest, opts ...grpc.CallOption) (*ScoreResponse, error) {
	out := new(ScoreResponse)
	if err := c.invoke(ctx, Talent_GetScore_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *talentClient) GetHistory(ctx context.Context, in *HistoryRequest, opts ...grpc.CallOption) (*HistoryResponse, error) {
	out := new(HistoryResponse)
	if err := c.invoke(ctx, Talent_GetHistory_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *talentClient) CheckIn(ctx context.Context, in *CheckinRequest, opts ...grpc.CallOption) (*CheckinResponse, error) {
	out := new(CheckinResponse)
	if err := c.invoke(ctx, Talent_CheckIn_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *talentClient) Leaderboard(ctx context.Context, in *LeaderboardRequest, opts ...grpc.CallOption) (*LeaderboardResponse, error) {
	out := new(LeaderboardResponse)
	if err := c.invoke(ctx, Talent_Leaderboard_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}
