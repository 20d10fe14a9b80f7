package rerank

import (
	"context"
	"math"

	"github.com/tunerec/tunerec/core"
	"github.com/tunerec/tunerec/pipeline"
)

const (
	// DefaultMatchBase / DefaultMatchSpan 原始分 [0,1] 到用户可见百分比的仿射映射：
	// match = Base + Span*score，收敛到 [0,100]。映射单调，不破坏已有名次。
	DefaultMatchBase = 55.0
	DefaultMatchSpan = 40.0
)

// MatchPercent 是归一化节点：把放大后的原始分映射成 0-100 的匹配百分比。
// 必须放在排序之后、结果导出之前；映射后 Score 即 match_score。
type MatchPercent struct {
	Base float64 // <=0 时取 DefaultMatchBase
	Span float64 // <=0 时取 DefaultMatchSpan
}

func (n *MatchPercent) Name() string        { return "rerank.match_percent" }
func (n *MatchPercent) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *MatchPercent) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	base := n.Base
	if base <= 0 {
		base = DefaultMatchBase
	}
	span := n.Span
	if span <= 0 {
		span = DefaultMatchSpan
	}

	for _, it := range items {
		if it == nil {
			continue
		}
		match := base + span*it.Score
		if match < 0 {
			match = 0
		}
		if match > 100 {
			match = 100
		}
		// 保留一位小数，避免界面上出现 87.3333... 这类分数
		it.Score = math.Round(match*10) / 10
	}
	return items, nil
}
