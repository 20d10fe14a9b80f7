package rerank

import (
	"context"

	"github.com/tunerec/tunerec/core"
	"github.com/tunerec/tunerec/pipeline"
)

// TopN 是截断节点：在排序/重排后截取前 N 个物品。
type TopN struct {
	// N 要保留的物品数量；<=0 时取 rctx.Limit；仍 <=0 则不截断
	N int
}

func (n *TopN) Name() string        { return "rerank.topn" }
func (n *TopN) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *TopN) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	limit := n.N
	if limit <= 0 && rctx != nil {
		limit = rctx.Limit
	}
	if limit <= 0 || len(items) <= limit {
		return items, nil
	}
	return items[:limit], nil
}
