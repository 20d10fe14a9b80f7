package recall

import (
	"context"

	"github.com/tunerec/tunerec/core"
	"github.com/tunerec/tunerec/pipeline"
	"github.com/tunerec/tunerec/pkg/utils"
)

// Unrated 是个性化主召回源：取用户尚未评分的候选歌曲。
// 超采样 limit 的若干倍，后续 Rank + Diversity 再收敛到 limit。
// Unrated 同时实现了 Source 和 Node 接口，可以直接在 Pipeline 中使用。
type Unrated struct {
	Store core.SongStore

	// Oversample 超采样倍数；<=0 时取 DefaultOversample
	Oversample int
}

func (r *Unrated) Name() string        { return "recall.unrated" }
func (r *Unrated) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall
func (r *Unrated) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口
func (r *Unrated) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Store == nil || rctx == nil || rctx.UserID == "" {
		return nil, nil
	}

	oversample := r.Oversample
	if oversample <= 0 {
		oversample = DefaultOversample
	}
	max := rctx.Limit * oversample
	if max <= 0 {
		max = 20 * oversample
	}

	songs, err := r.Store.GetUnratedCandidates(ctx, rctx.UserID, max)
	if err != nil {
		return nil, err
	}

	out := make([]*core.Item, 0, len(songs))
	for i := range songs {
		it := core.NewItem(&songs[i])
		it.PutLabel("recall_source", utils.Label{Value: "unrated", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}
