package talent

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	models "github.com/BANSEOKCHA/my-yks-app/internal/models"
	service "github.com/BANSEOKCHA/my-yks-app/internal/services"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Set by the auth gateway in front of the service
const UserHeader = "X-User-ID"

type callerKey struct{}

type TalentHandler struct {
	router    *mux.Router
	community *service.CommunityService
	logger    *zap.Logger
	ranking   int64
}

// ranking is the leaderboard size when no limit is given
func NewHandler(community *service.CommunityService, logger *zap.Logger, ranking int64) *TalentHandler {
	router := mux.NewRouter()
	handler := &TalentHandler{router, community, logger, ranking}
	router.Use(MiddlewareLog())

	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/users", handler.SignupHandler).Methods(http.MethodPost)

	member := router.NewRoute().Subrouter()
	member.Use(handler.requireCaller)
	member.HandleFunc("/me", handler.ProfileHandler).Methods(http.MethodGet)
	member.HandleFunc("/me/posts", handler.MyPostsHandler).Methods(http.MethodGet)
	member.HandleFunc("/me/history", handler.HistoryHandler).Methods(http.MethodGet)
	member.HandleFunc("/posts", handler.SubmitPostHandler).Methods(http.MethodPost)
	member.HandleFunc("/posts/{id}", handler.EditPostHandler).Methods(http.MethodPut)
	member.HandleFunc("/checkin", handler.CheckinHandler).Methods(http.MethodPost)
	member.HandleFunc("/square", handler.SquareHandler).Methods(http.MethodGet)
	member.HandleFunc("/leaderboard", handler.LeaderboardHandler).Methods(http.MethodGet)

	admin := router.PathPrefix("/admin").Subrouter()
	admin.Use(handler.requireCaller, handler.requireAdmin)
	admin.HandleFunc("/members", handler.ActiveMembersHandler).Methods(http.MethodGet)
	admin.HandleFunc("/members/disabled", handler.DisabledMembersHandler).Methods(http.MethodGet)
	admin.HandleFunc("/members/search", handler.SearchMembersHandler).Methods(http.MethodGet)
	admin.HandleFunc("/members/{id}/score", handler.AddScoreHandler).Methods(http.MethodPost)
	admin.HandleFunc("/members/{id}/disable", handler.DisableMemberHandler).Methods(http.MethodPost)
	admin.HandleFunc("/posts", handler.AllPostsHandler).Methods(http.MethodGet)
	admin.HandleFunc("/posts/{id}", handler.DeletePostHandler).Methods(http.MethodDelete)
	admin.HandleFunc("/ranking", handler.RankingHandler).Methods(http.MethodGet)

	return handler
}

func (h *TalentHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	h.router.ServeHTTP(w, req)
}

func (h *TalentHandler) Log(msg string, service string, err error) {
	h.logger.Error(msg,
		zap.String("service", service),
		zap.Error(err),
	)
}

func caller(req *http.Request) string {
	uid, _ := req.Context().Value(callerKey{}).(string)
	return uid
}

func (h *TalentHandler) requireCaller(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		uid := req.Header.Get(UserHeader)
		if uid == "" {
			http.Error(w, "missing "+UserHeader, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, req.WithContext(context.WithValue(req.Context(), callerKey{}, uid)))
	})
}

func (h *TalentHandler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		err := h.community.RequireAdmin(req.Context(), caller(req))
		if err != nil {
			h.fail(w, "RequireAdmin", err)
			return
		}
		next.ServeHTTP(w, req)
	})
}

func StatusCode(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrAlreadyExists), errors.Is(err, models.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, models.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrInvalidCode), errors.Is(err, models.ErrForbidden), errors.Is(err, models.ErrDisabled):
		return http.StatusForbidden
	case errors.Is(err, models.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// Server-side failures are logged; client errors only answered
func (h *TalentHandler) fail(w http.ResponseWriter, service string, err error) {
	code := StatusCode(err)
	if code >= http.StatusInternalServerError {
		h.Log("Request failed", service, err)
		http.Error(w, http.StatusText(code), code)
		return
	}
	http.Error(w, err.Error(), code)
}

func (h *TalentHandler) reply(w http.ResponseWriter, service string, code int, v any) {
	j, err := json.Marshal(v)
	if err != nil {
		h.Log("Marshal", service, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(j)
}

func (h *TalentHandler) decode(req *http.Request, v any) error {
	body, err := io.ReadAll(req.Body)
	if err != nil {
		return errors.Join(models.ErrInvalidInput, err)
	}
	defer req.Body.Close()
	err = json.Unmarshal(body, v)
	if err != nil {
		return errors.Join(models.ErrInvalidInput, err)
	}
	return nil
}

func limitParam(req *http.Request, def int64) (int64, error) {
	raw := req.URL.Query().Get("limit")
	if raw == "" {
		return def, nil
	}
	limit, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || limit < 0 {
		return 0, errors.Join(models.ErrInvalidInput, errors.New("limit must be a non-negative integer"))
	}
	return limit, nil
}

func idParam(req *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(req)["id"])
	if err != nil {
		return uuid.Nil, errors.Join(models.ErrNotFound, err)
	}
	return id, nil
}

// Signup. The gateway uid, when present, wins over the body.
func (h *TalentHandler) SignupHandler(w http.ResponseWriter, req *http.Request) {
	var signup service.SignupRequest
	err := h.decode(req, &signup)
	if err != nil {
		h.fail(w, "SignupHandler", err)
		return
	}
	if uid := req.Header.Get(UserHeader); uid != "" {
		signup.UID = uid
	}
	user, err := h.community.Signup(req.Context(), signup)
	if err != nil {
		h.fail(w, "SignupHandler", err)
		return
	}
	h.reply(w, "SignupHandler", http.StatusCreated, user)
}

func (h *TalentHandler) ProfileHandler(w http.ResponseWriter, req *http.Request) {
	user, err := h.community.Profile(req.Context(), caller(req))
	if err != nil {
		h.fail(w, "ProfileHandler", err)
		return
	}
	h.reply(w, "ProfileHandler", http.StatusOK, user)
}

type SubmitPostResponse struct {
	Post    models.Post    `json:"post"`
	Outcome models.Outcome `json:"reward"`
}

func (h *TalentHandler) SubmitPostHandler(w http.ResponseWriter, req *http.Request) {
	var submit service.SubmitPostRequest
	err := h.decode(req, &submit)
	if err != nil {
		h.fail(w, "SubmitPostHandler", err)
		return
	}
	post, outcome, err := h.community.SubmitPost(req.Context(), caller(req), submit)
	if err != nil {
		h.fail(w, "SubmitPostHandler", err)
		return
	}
	h.reply(w, "SubmitPostHandler", http.StatusCreated, SubmitPostResponse{post, outcome})
}

type EditPostRequest struct {
	Content string `json:"content"`
}

func (h *TalentHandler) EditPostHandler(w http.ResponseWriter, req *http.Request) {
	id, err := idParam(req)
	if err != nil {
		h.fail(w, "EditPostHandler", err)
		return
	}
	var edit EditPostRequest
	err = h.decode(req, &edit)
	if err != nil {
		h.fail(w, "EditPostHandler", err)
		return
	}
	err = h.community.EditPost(req.Context(), caller(req), id, edit.Content)
	if err != nil {
		h.fail(w, "EditPostHandler", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TalentHandler) MyPostsHandler(w http.ResponseWriter, req *http.Request) {
	posts, err := h.community.MyPosts(req.Context(), caller(req))
	if err != nil {
		h.fail(w, "MyPostsHandler", err)
		return
	}
	h.reply(w, "MyPostsHandler", http.StatusOK, posts)
}

func (h *TalentHandler) HistoryHandler(w http.ResponseWriter, req *http.Request) {
	history, err := h.community.History(req.Context(), caller(req))
	if err != nil {
		h.fail(w, "HistoryHandler", err)
		return
	}
	h.reply(w, "HistoryHandler", http.StatusOK, history)
}

// QR check-in; a rejection is a normal 200 answer with granted=false
func (h *TalentHandler) CheckinHandler(w http.ResponseWriter, req *http.Request) {
	outcome, err := h.community.CheckIn(req.Context(), caller(req), req.URL.Query().Get("code"))
	if err != nil {
		h.fail(w, "CheckinHandler", err)
		return
	}
	h.reply(w, "CheckinHandler", http.StatusOK, outcome)
}

func (h *TalentHandler) SquareHandler(w http.ResponseWriter, req *http.Request) {
	feed, err := h.community.Square(req.Context())
	if err != nil {
		h.fail(w, "SquareHandler", err)
		return
	}
	h.reply(w, "SquareHandler", http.StatusOK, feed)
}

func (h *TalentHandler) LeaderboardHandler(w http.ResponseWriter, req *http.Request) {
	limit, err := limitParam(req, h.ranking)
	if err != nil {
		h.fail(w, "LeaderboardHandler", err)
		return
	}
	top, err := h.community.Leaderboard(req.Context(), limit)
	if err != nil {
		h.fail(w, "LeaderboardHandler", err)
		return
	}
	h.reply(w, "LeaderboardHandler", http.StatusOK, top)
}

// admin

func (h *TalentHandler) ActiveMembersHandler(w http.ResponseWriter, req *http.Request) {
	users, err := h.community.ActiveMembers(req.Context())
	if err != nil {
		h.fail(w, "ActiveMembersHandler", err)
		return
	}
	h.reply(w, "ActiveMembersHandler", http.StatusOK, users)
}

func (h *TalentHandler) DisabledMembersHandler(w http.ResponseWriter, req *http.Request) {
	users, err := h.community.DisabledMembers(req.Context())
	if err != nil {
		h.fail(w, "DisabledMembersHandler", err)
		return
	}
	h.reply(w, "DisabledMembersHandler", http.StatusOK, users)
}

func (h *TalentHandler) SearchMembersHandler(w http.ResponseWriter, req *http.Request) {
	users, err := h.community.SearchMembers(req.Context(), req.URL.Query().Get("q"))
	if err != nil {
		h.fail(w, "SearchMembersHandler", err)
		return
	}
	h.reply(w, "SearchMembersHandler", http.StatusOK, users)
}

type AddScoreRequest struct {
	Points int64 `json:"points"`
}

func (h *TalentHandler) AddScoreHandler(w http.ResponseWriter, req *http.Request) {
	var add AddScoreRequest
	err := h.decode(req, &add)
	if err != nil {
		h.fail(w, "AddScoreHandler", err)
		return
	}
	state, err := h.community.AddScore(req.Context(), mux.Vars(req)["id"], add.Points)
	if err != nil {
		h.fail(w, "AddScoreHandler", err)
		return
	}
	h.reply(w, "AddScoreHandler", http.StatusOK, state)
}

func (h *TalentHandler) DisableMemberHandler(w http.ResponseWriter, req *http.Request) {
	err := h.community.DisableMember(req.Context(), mux.Vars(req)["id"])
	if err != nil {
		h.fail(w, "DisableMemberHandler", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TalentHandler) AllPostsHandler(w http.ResponseWriter, req *http.Request) {
	posts, err := h.community.AllPosts(req.Context())
	if err != nil {
		h.fail(w, "AllPostsHandler", err)
		return
	}
	h.reply(w, "AllPostsHandler", http.StatusOK, posts)
}

func (h *TalentHandler) DeletePostHandler(w http.ResponseWriter, req *http.Request) {
	id, err := idParam(req)
	if err != nil {
		h.fail(w, "DeletePostHandler", err)
		return
	}
	err = h.community.DeletePost(req.Context(), id)
	if err != nil {
		h.fail(w, "DeletePostHandler", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TalentHandler) RankingHandler(w http.ResponseWriter, req *http.Request) {
	limit, err := limitParam(req, 0)
	if err != nil {
		h.fail(w, "RankingHandler", err)
		return
	}
	ranking, err := h.community.Ranking(req.Context(), limit)
	if err != nil {
		h.fail(w, "RankingHandler", err)
		return
	}
	h.reply(w, "RankingHandler", http.StatusOK, ranking)
}
