package filter

import (
	"context"

	"github.com/tunerec/tunerec/core"
	"github.com/tunerec/tunerec/pipeline"
	"github.com/tunerec/tunerec/pkg/utils"
)

// Node 是过滤阶段的 Pipeline 节点：依次应用多个 Filter，剔除命中的候选。
type Node struct {
	Filters []Filter
}

func (n *Node) Name() string        { return "filter" }
func (n *Node) Kind() pipeline.Kind { return pipeline.KindFilter }

func (n *Node) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(n.Filters) == 0 || len(items) == 0 {
		return items, nil
	}

	out := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		filtered := false
		for _, f := range n.Filters {
			hit, err := f.ShouldFilter(ctx, rctx, it)
			if err != nil {
				return nil, err
			}
			if hit {
				it.PutLabel("filtered_by", utils.Label{Value: f.Name(), Source: "filter"})
				filtered = true
				break
			}
		}
		if !filtered {
			out = append(out, it)
		}
	}
	return out, nil
}
