package recall

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tunerec/tunerec/core"
	"github.com/tunerec/tunerec/pipeline"
	"github.com/tunerec/tunerec/pkg/utils"
)

// Fanout 是一个 Recall Node：并发执行多个召回源，按源顺序合并结果。
// 结果先按 Sources 的声明顺序拼接、再按 ID 去重（首个出现者保留），
// 因此相同输入下输出顺序确定，与各源的完成先后无关。
//
// 任一召回源失败会让整个节点返回错误，由上层决定降级；
// 允许失败的补位源（如热门补位）用 Optional 包装。
type Fanout struct {
	Sources       []Source
	Dedup         bool
	Timeout       time.Duration // 每个召回源的超时时间
	MaxConcurrent int           // 最大并发数（0 表示无限制）
}

func (n *Fanout) Name() string        { return "recall.fanout" }
func (n *Fanout) Kind() pipeline.Kind { return pipeline.KindRecall }

func (n *Fanout) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	if len(n.Sources) == 0 {
		return nil, nil
	}

	results := make([][]*core.Item, len(n.Sources))
	eg, egCtx := errgroup.WithContext(ctx)
	if n.MaxConcurrent > 0 {
		eg.SetLimit(n.MaxConcurrent)
	}

	for i, src := range n.Sources {
		idx, s := i, src

		eg.Go(func() error {
			recallCtx := egCtx
			if n.Timeout > 0 {
				var cancel context.CancelFunc
				recallCtx, cancel = context.WithTimeout(egCtx, n.Timeout)
				defer cancel()
			}

			items, err := s.Recall(recallCtx, rctx)
			if err != nil {
				return err
			}

			// 记录召回来源 label，方便 explain / 观测
			for _, it := range items {
				it.PutLabel("recall_source", utils.Label{Value: s.Name(), Source: "recall"})
			}

			results[idx] = items
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var all []*core.Item
	for _, items := range results {
		all = append(all, items...)
	}

	if !n.Dedup {
		return all, nil
	}

	seen := make(map[string]*core.Item, len(all))
	out := make([]*core.Item, 0, len(all))
	for _, it := range all {
		if it == nil || it.Song == nil {
			continue
		}
		if old, ok := seen[it.Song.SongID]; ok {
			for k, v := range it.Labels {
				old.PutLabel(k, v)
			}
			continue
		}
		seen[it.Song.SongID] = it
		out = append(out, it)
	}
	return out, nil
}

// Optional 包装一个召回源：失败时返回空结果而不是错误。
// 用于补位类召回（缺了只是候选变少）；主召回源不应包装，
// 它的失败要走降级而不是被静默吞掉。
type Optional struct {
	Source Source
}

func (o *Optional) Name() string { return o.Source.Name() }

func (o *Optional) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	items, err := o.Source.Recall(ctx, rctx)
	if err != nil {
		return nil, nil
	}
	return items, nil
}
