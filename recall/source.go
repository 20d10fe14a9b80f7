package recall

import (
	"context"

	"github.com/tunerec/tunerec/core"
)

// Source 是召回源的抽象：根据请求上下文生成候选集。
// 一个 Source 通常也实现 pipeline.Node，便于直接串进 Pipeline。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error)
}

// DefaultOversample 候选集相对 limit 的超采样倍数，给多样性重排留出丢弃空间。
const DefaultOversample = 3
