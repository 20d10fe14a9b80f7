// Package engine 编排一次完整的推荐请求：拉取评分 → 构建画像 →
// 召回/过滤/打分/重排 → 导出结果。
//
// Engine 对外从不返回错误：预期内的信号不足走热门兜底，
// 非预期的内部失败记录日志后降级，调用方永远拿到一个可用的 Result。
package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tunerec/tunerec/core"
	"github.com/tunerec/tunerec/describe"
	"github.com/tunerec/tunerec/filter"
	"github.com/tunerec/tunerec/pipeline"
	"github.com/tunerec/tunerec/profile"
	"github.com/tunerec/tunerec/rank"
	"github.com/tunerec/tunerec/recall"
	"github.com/tunerec/tunerec/rerank"
)

const (
	// DefaultLimit 未指定条数时的默认推荐条数
	DefaultLimit = 10

	// DefaultSignalThreshold 评分达到该值才算合格信号
	DefaultSignalThreshold = 3.0

	// DefaultMaxRatings 构建画像时最多取的合格评分条数
	DefaultMaxRatings = 30

	// 热门兜底的展示分数：85%, 83%, 81%...，最低 60%
	popularTopScore   = 85.0
	popularScoreStep  = 2.0
	popularScoreFloor = 60.0

	popularReason   = "Popular song with high ratings"
	allRatedProfile = "Music enthusiast"
)

// 面向用户的提示语
const (
	msgColdStart = "No ratings found. Showing popular songs instead. Rate some songs to get personalized recommendations!"

	msgInsufficientSignal = "Rate a few more songs to get personalized recommendations! Showing popular songs instead."

	msgAllRated = "You've rated many songs! Here are some popular tracks you haven't rated yet."

	msgDegraded = "Something went wrong. Showing popular songs instead."

	msgPersonalizedFmt = "Found %d personalized recommendations based on your %d rated songs!"
)

// Engine 是推荐请求的编排器。零值不可用，至少要注入 Store；
// 其余字段为空时使用默认装配。
type Engine struct {
	// Store 歌曲/评分持久层（必须注入）
	Store core.SongStore

	// Builder 口味画像构建器；nil 时用默认配置
	Builder *profile.Builder

	// Pipeline 个性化候选链路；nil 时用默认装配
	// （unrated 召回 → 已评分过滤 → 口味打分 → 多样性 → 截断 → 百分比归一化）
	Pipeline *pipeline.Pipeline

	// Popular 兜底召回源；nil 时用 recall.Popular{Store}
	Popular recall.Source

	// Logger 结构化日志；零值为 no-op
	Logger zerolog.Logger

	// SignalThreshold 合格评分阈值；<=0 时取 DefaultSignalThreshold
	SignalThreshold float64

	// MaxRatings 画像评分条数上限；<=0 时取 DefaultMaxRatings
	MaxRatings int
}

// New 用默认装配创建 Engine。
// 默认画像构建器带规则版描述生成（无外部依赖）；接外部文本服务或
// 分布式缓存时替换 Builder.Describer 的 Generator / Cache 即可。
func New(store core.SongStore) *Engine {
	return &Engine{
		Store:   store,
		Builder: &profile.Builder{Describer: &describe.Describer{}},
		Logger:  zerolog.Nop(),
	}
}

// Recommend 为用户生成推荐。limit <= 0 时取 DefaultLimit。
// 此方法从不返回错误；所有失败路径都收敛为兜底或降级的 Result。
func (e *Engine) Recommend(ctx context.Context, userID string, limit int) (res *core.Result) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	logger := e.Logger.With().Str("user_id", userID).Int("limit", limit).Logger()

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("recommendation flow panicked")
			res = e.degraded(ctx, limit)
		}
	}()

	threshold := e.SignalThreshold
	if threshold <= 0 {
		threshold = DefaultSignalThreshold
	}
	maxRatings := e.MaxRatings
	if maxRatings <= 0 {
		maxRatings = DefaultMaxRatings
	}

	ratings, err := e.Store.GetQualifyingRatings(ctx, userID, threshold, maxRatings)
	if err != nil {
		logger.Error().Err(err).Msg("load qualifying ratings failed")
		return e.degraded(ctx, limit)
	}
	if len(ratings) == 0 {
		logger.Info().Msg("cold start, serving popular songs")
		return e.popularResult(ctx, limit, 0, "", core.FallbackColdStart, msgColdStart)
	}

	builder := e.Builder
	if builder == nil {
		builder = &profile.Builder{}
	}
	prof, err := builder.Build(ctx, userID, ratings)
	if err != nil {
		if core.IsInsufficientSignal(err) {
			logger.Info().Int("ratings", len(ratings)).Msg("not enough signal to personalize")
			return e.popularResult(ctx, limit, len(ratings), "", core.FallbackInsufficientSignal, msgInsufficientSignal)
		}
		logger.Error().Err(err).Msg("build taste profile failed")
		return e.degraded(ctx, limit)
	}

	rctx := &core.RecommendContext{UserID: userID, Limit: limit, Profile: prof}
	items, err := e.pipe().Run(ctx, rctx, nil)
	if err != nil {
		logger.Error().Err(err).Msg("candidate pipeline failed")
		return e.degraded(ctx, limit)
	}
	if e.allRated(items) {
		logger.Info().Int("ratings", len(ratings)).Msg("no unrated candidates left")
		return e.popularResult(ctx, limit, len(ratings), allRatedProfile, core.FallbackAllRated, msgAllRated)
	}

	recs := make([]core.Recommendation, 0, len(items))
	for _, it := range items {
		if it == nil || it.Song == nil {
			continue
		}
		recs = append(recs, core.Recommendation{
			Song:       *it.Song,
			MatchScore: it.Score,
			Reason:     it.Reason,
		})
	}
	logger.Info().
		Int("recommendations", len(recs)).
		Int("ratings", len(ratings)).
		Msg("personalized recommendations served")

	return &core.Result{
		Recommendations:  recs,
		TotalUserRatings: len(ratings),
		TasteProfile:     prof.Description,
		Message:          fmt.Sprintf(msgPersonalizedFmt, len(recs), len(ratings)),
		Outcome:          core.OutcomePersonalized,
	}
}

// pipe 返回个性化链路；未注入时按默认装配构建。
// 召回用 Fanout 并联未评分源与热门源：未评分池小于 limit 时由热门歌曲
// 确定性补位，保证候选充足。主召回（未评分）失败会上抛并触发降级；
// 热门补位用 Optional 包装，失败只是少了补位。
func (e *Engine) pipe() *pipeline.Pipeline {
	if e.Pipeline != nil {
		return e.Pipeline
	}
	nodes := []pipeline.Node{
		&recall.Fanout{
			Sources: []recall.Source{
				&recall.Unrated{Store: e.Store},
				&recall.Optional{Source: &recall.Popular{Store: e.Store}},
			},
			Dedup: true,
		},
	}
	if rs, ok := e.Store.(filter.RatedStore); ok {
		nodes = append(nodes, &filter.Node{Filters: []filter.Filter{&filter.Rated{Store: rs}}})
	}
	nodes = append(nodes,
		&rank.TasteNode{},
		&rerank.Diversity{},
		&rerank.TopN{},
		&rerank.MatchPercent{},
	)
	return &pipeline.Pipeline{Nodes: nodes}
}

// allRated 判断个性化链路是否完全没有召回到未评分歌曲。
// 默认链路下热门源会补位，所以不能只看候选是否为空，要看召回来源标签；
// 自定义链路无此标签约定，只按是否为空判断。
func (e *Engine) allRated(items []*core.Item) bool {
	if len(items) == 0 {
		return true
	}
	if e.Pipeline != nil {
		return false
	}
	for _, it := range items {
		if it == nil {
			continue
		}
		if lbl, ok := it.Labels["recall_source"]; ok && strings.Contains(lbl.Value, "unrated") {
			return false
		}
	}
	return true
}

// popularResult 组装一个预期内兜底的 Result。
func (e *Engine) popularResult(
	ctx context.Context,
	limit, totalRatings int,
	tasteProfile string,
	reason core.FallbackReason,
	msg string,
) *core.Result {
	return &core.Result{
		Recommendations:  e.popularRecs(ctx, limit),
		TotalUserRatings: totalRatings,
		TasteProfile:     tasteProfile,
		Message:          msg,
		Outcome:          core.OutcomePopular,
		FallbackReason:   reason,
	}
}

// degraded 组装非预期失败后的降级 Result。
func (e *Engine) degraded(ctx context.Context, limit int) *core.Result {
	return &core.Result{
		Recommendations:  e.popularRecs(ctx, limit),
		TotalUserRatings: 0,
		Message:          msgDegraded,
		Outcome:          core.OutcomeDegraded,
		FallbackReason:   core.FallbackInternalError,
	}
}

// popularRecs 取热门歌曲并赋予阶梯展示分：85%, 83%, ...，最低 60%。
// 兜底路径自身失败时返回空列表，调用方仍拿到合法 Result。
func (e *Engine) popularRecs(ctx context.Context, limit int) []core.Recommendation {
	src := e.Popular
	if src == nil {
		if e.Store == nil {
			return []core.Recommendation{}
		}
		src = &recall.Popular{Store: e.Store, Max: limit}
	}

	items, err := src.Recall(ctx, &core.RecommendContext{Limit: limit})
	if err != nil {
		e.Logger.Warn().Err(err).Msg("popular fallback recall failed")
		return []core.Recommendation{}
	}
	if len(items) > limit {
		items = items[:limit]
	}

	recs := make([]core.Recommendation, 0, len(items))
	for i, it := range items {
		if it == nil || it.Song == nil {
			continue
		}
		score := popularTopScore - popularScoreStep*float64(i)
		if score < popularScoreFloor {
			score = popularScoreFloor
		}
		recs = append(recs, core.Recommendation{
			Song:       *it.Song,
			MatchScore: score,
			Reason:     popularReason,
		})
	}
	return recs
}
