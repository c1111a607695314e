package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/rushteam/feedrank/core"
	"github.com/rushteam/feedrank/pkg/logging"
	"github.com/rushteam/feedrank/pkg/utils"
)

const (
	maxBodyBytes    = 8 << 20
	codeRateLimited = "RATE_LIMITED"
)

// CandidateRequest 是单个候选的请求体。
type CandidateRequest struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`

	Likes   int `json:"likes"`
	Reposts int `json:"reposts"`
	Replies int `json:"replies"`
	Quotes  int `json:"quotes"`

	HasMedia         bool `json:"has_media"`
	CommunityFlagged bool `json:"community_flagged"`

	// HoursSinceSeen 为空表示由服务端已读记录决定
	HoursSinceSeen *float64 `json:"hours_since_seen,omitempty"`
	AuthorRepeats  int      `json:"author_repeats"`
	ContentRepeats int      `json:"content_repeats"`
	RandomFactor   float64  `json:"random_factor"`
	// NoveltyFactor 为 0 表示由服务端按已读记录计算
	NoveltyFactor float64 `json:"novelty_factor" validate:"gte=0"`

	Verified       bool    `json:"verified"`
	Gold           bool    `json:"gold"`
	FollowerCount  int     `json:"follower_count"`
	PromotionBoost float64 `json:"promotion_boost"`
}

// RankRequest 是 POST /v1/timeline/rank 的请求体。
type RankRequest struct {
	ViewerID   string             `json:"viewer_id"`
	Scene      string             `json:"scene"`
	Now        *time.Time         `json:"now,omitempty"`
	Limit      int                `json:"limit" validate:"gte=0"`
	Debug      bool               `json:"debug"`
	Candidates []CandidateRequest `json:"candidates" validate:"dive"`
}

// RankedItem 是 debug 模式下返回的单条明细。
type RankedItem struct {
	ID     string                 `json:"id"`
	Score  float64                `json:"score"`
	Labels map[string]utils.Label `json:"labels,omitempty"`
}

// RankResponse 是排序响应。
type RankResponse struct {
	RequestID string       `json:"request_id"`
	IDs       []string     `json:"ids"`
	Items     []RankedItem `json:"items,omitempty"`
}

// IDsRequest 是只包含 ID 列表的请求体。
type IDsRequest struct {
	IDs []string `json:"ids"`
}

type errorBody struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id,omitempty"`
	} `json:"error"`
}

func (c CandidateRequest) candidate() *core.Candidate {
	out := core.NewCandidate(c.ID)
	out.AuthorID = c.AuthorID
	out.Content = c.Content
	out.CreatedAt = c.CreatedAt
	out.Likes, out.Reposts, out.Replies, out.Quotes = c.Likes, c.Reposts, c.Replies, c.Quotes
	out.HasMedia = c.HasMedia
	out.CommunityFlagged = c.CommunityFlagged
	if c.HoursSinceSeen != nil {
		out.HoursSinceSeen = *c.HoursSinceSeen
	}
	out.AuthorRepeats = c.AuthorRepeats
	out.ContentRepeats = c.ContentRepeats
	out.RandomFactor = c.RandomFactor
	out.NoveltyFactor = c.NoveltyFactor
	out.Verified = c.Verified
	out.Gold = c.Gold
	out.FollowerCount = c.FollowerCount
	out.PromotionBoost = c.PromotionBoost
	return out
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRank(w http.ResponseWriter, r *http.Request) {
	var req RankRequest
	if !decode(w, r, &req) {
		return
	}
	if len(req.Candidates) > s.cfg.MaxCandidates {
		writeError(w, r, invalidInput(fmt.Sprintf("too many candidates: %d > %d", len(req.Candidates), s.cfg.MaxCandidates)))
		return
	}

	now := time.Now()
	if req.Now != nil {
		now = *req.Now
	}
	items := make([]*core.Candidate, len(req.Candidates))
	for i, c := range req.Candidates {
		items[i] = c.candidate()
	}
	rctx := &core.RecommendContext{
		ViewerID: req.ViewerID,
		Scene:    req.Scene,
		Now:      now,
		Params:   map[string]any{"debug": req.Debug},
	}
	if req.Limit > 0 {
		rctx.Params["limit"] = req.Limit
	}

	out, err := s.pipeline.Run(r.Context(), rctx, items)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.markSeen(r.Context(), req.ViewerID, out, now)

	resp := RankResponse{RequestID: RequestID(r.Context()), IDs: core.IDs(out)}
	if req.Debug {
		resp.Items = make([]RankedItem, 0, len(out))
		for _, c := range out {
			if c == nil {
				continue
			}
			resp.Items = append(resp.Items, RankedItem{ID: c.ID, Score: c.Score, Labels: c.Labels})
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// markSeen 把返回列表的可见前缀写入观看者的已读记录，失败只记日志。
func (s *Server) markSeen(ctx context.Context, viewerID string, out []*core.Candidate, at time.Time) {
	if s.seen == nil || viewerID == "" || s.cfg.SeenWindow <= 0 {
		return
	}
	ids := core.IDs(out)
	ids = ids[:min(len(ids), s.cfg.SeenWindow)]
	if err := s.seen.MarkSeen(ctx, viewerID, ids, at); err != nil {
		logging.Warn().Err(err).Str("viewer", viewerID).Msg("mark seen failed")
	}
}

func (s *Server) handleSetPromotions(w http.ResponseWriter, r *http.Request) {
	var req IDsRequest
	if !decode(w, r, &req) {
		return
	}
	s.exposure.SetRecentPromotions(req.IDs)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearPromotions(w http.ResponseWriter, _ *http.Request) {
	s.exposure.ClearRecentPromotions()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRecordShown(w http.ResponseWriter, r *http.Request) {
	var req IDsRequest
	if !decode(w, r, &req) {
		return
	}
	for _, id := range req.IDs {
		s.exposure.RecordShown(id)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearExposure(w http.ResponseWriter, _ *http.Request) {
	s.exposure.ClearHistory()
	w.WriteHeader(http.StatusNoContent)
}

func invalidInput(msg string) error {
	return core.NewDomainError(core.ModuleServer, core.ErrorCodeInvalidInput, msg)
}

// decode 解析并校验请求体，失败时已写好错误响应。
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, r, invalidInput("decode request: "+err.Error()))
		return false
	}
	if err := validate.Struct(v); err != nil {
		writeError(w, r, invalidInput("invalid request: "+err.Error()))
		return false
	}
	return true
}

func statusFor(err error) (int, string) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return http.StatusServiceUnavailable, core.ErrorCodeUnavailable
	}
	de := core.GetDomainError(err)
	if de == nil {
		return http.StatusInternalServerError, core.ErrorCodeInternalError
	}
	switch de.Code {
	case core.ErrorCodeInvalidInput:
		return http.StatusBadRequest, de.Code
	case core.ErrorCodeNotFound:
		return http.StatusNotFound, de.Code
	case core.ErrorCodeUnavailable:
		return http.StatusServiceUnavailable, de.Code
	case codeRateLimited:
		return http.StatusTooManyRequests, de.Code
	default:
		return http.StatusInternalServerError, de.Code
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	var body errorBody
	body.Error.Code = code
	body.Error.Message = err.Error()
	body.Error.RequestID = RequestID(r.Context())
	if status >= http.StatusInternalServerError {
		logging.Error().Err(err).Str("request_id", body.Error.RequestID).Msg("request failed")
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Debug().Err(err).Msg("write response failed")
	}
}
