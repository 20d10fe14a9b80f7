package recall

import (
	"context"

	"github.com/tunerec/tunerec/core"
	"github.com/tunerec/tunerec/pipeline"
	"github.com/tunerec/tunerec/pkg/utils"
)

// Popular 是热门召回源：全站热门歌曲（average_rating 降序、rating_count 降序）。
// 既是冷启动/降级链路的兜底，也在候选不足时补位。
//
// 数据来源优先级：
//   - SongStore.GetPopularSongs（带完整歌曲快照）
//   - KV 有序集合（离线任务维护的热门榜单，仅 ID，特征留待补全）
//
// Popular 同时实现了 Source 和 Node 接口。
type Popular struct {
	Store core.SongStore

	// KV 可选的热门榜单存储；SongStore 失败时兜底
	KV core.KeyValueStore

	// Key 榜单 key，例如 "popular:songs"
	Key string

	// Max 召回上限；<=0 时取 rctx.Limit * DefaultOversample
	Max int
}

func (r *Popular) Name() string        { return "recall.popular" }
func (r *Popular) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall
func (r *Popular) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口
func (r *Popular) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	max := r.Max
	if max <= 0 {
		limit := 20
		if rctx != nil && rctx.Limit > 0 {
			limit = rctx.Limit
		}
		max = limit * DefaultOversample
	}

	if r.Store != nil {
		songs, err := r.Store.GetPopularSongs(ctx, max)
		if err == nil {
			return wrapPopular(songs), nil
		}
		if r.KV == nil || r.Key == "" {
			return nil, err
		}
	}

	// KV 兜底：榜单只有歌曲 ID，特征向量留空，由特征补全节点回填
	if r.KV != nil && r.Key != "" {
		ids, err := r.KV.ZRange(ctx, r.Key, 0, int64(max)-1)
		if err != nil {
			return nil, err
		}
		out := make([]*core.Item, 0, len(ids))
		for _, id := range ids {
			it := core.NewItem(&core.CandidateSong{SongID: id})
			it.PutLabel("recall_source", utils.Label{Value: "popular", Source: "recall"})
			out = append(out, it)
		}
		return out, nil
	}

	return nil, nil
}

func wrapPopular(songs []core.CandidateSong) []*core.Item {
	out := make([]*core.Item, 0, len(songs))
	for i := range songs {
		it := core.NewItem(&songs[i])
		it.PutLabel("recall_source", utils.Label{Value: "popular", Source: "recall"})
		out = append(out, it)
	}
	return out
}
