package core

// Outcome 标记一次推荐请求的结果形态，降级路径显式体现在结果类型上，
// 而不是隐藏在异常控制流里。
type Outcome string

const (
	// OutcomePersonalized 完整个性化链路成功
	OutcomePersonalized Outcome = "personalized"
	// OutcomePopular 热门兜底（预期内降级：冷启动 / 评分不足 / 已评完全部歌曲）
	OutcomePopular Outcome = "popular_fallback"
	// OutcomeDegraded 非预期内部失败后的降级（记录日志，total_user_ratings 置 0）
	OutcomeDegraded Outcome = "degraded"
)

// FallbackReason 说明进入兜底分支的原因。
type FallbackReason string

const (
	FallbackNone               FallbackReason = ""
	FallbackColdStart          FallbackReason = "cold_start"
	FallbackInsufficientSignal FallbackReason = "insufficient_signal"
	FallbackAllRated           FallbackReason = "all_rated"
	FallbackInternalError      FallbackReason = "internal_error"
)

// Recommendation 是返回给调用方的单条推荐记录。
type Recommendation struct {
	Song       CandidateSong `json:"song"`
	MatchScore float64       `json:"match_score"` // [0,100]
	Reason     string        `json:"reason"`
}

// Result 是推荐引擎对外的唯一产物。
// 引擎保证 Result 永远有效：内部打分失败不会以错误形式暴露给调用方。
type Result struct {
	Recommendations  []Recommendation `json:"recommendations"`
	TotalUserRatings int              `json:"total_user_ratings"`
	TasteProfile     string           `json:"taste_profile,omitempty"`
	Message          string           `json:"message"`
	Outcome          Outcome          `json:"outcome"`
	FallbackReason   FallbackReason   `json:"fallback_reason,omitempty"`
}
