package filter

import (
	"context"

	"github.com/tunerec/tunerec/core"
)

// Rated 是已评分过滤器：剔除用户评过分（任意分值）的歌曲。
// 主召回源本身只取未评分候选，此过滤器兜住热门补位等旁路进入的已评分歌曲。
type Rated struct {
	// Store 用于读取用户已评分的歌曲 ID 集合
	Store RatedStore
}

// RatedStore 是已评分记录的存储接口。
type RatedStore interface {
	// GetRatedSongIDs 获取用户评过分的全部歌曲 ID
	GetRatedSongIDs(ctx context.Context, userID string) ([]string, error)
}

func (f *Rated) Name() string {
	return "filter.rated"
}

func (f *Rated) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil || item.Song == nil || rctx == nil || rctx.UserID == "" {
		return false, nil
	}
	if f.Store == nil {
		return false, nil
	}

	ratedIDs, err := f.Store.GetRatedSongIDs(ctx, rctx.UserID)
	if err != nil {
		// 读取失败时放行：宁可多推已评分歌曲，也不让过滤器拖垮整条链路
		return false, nil
	}

	for _, id := range ratedIDs {
		if item.Song.SongID == id {
			return true, nil
		}
	}
	return false, nil
}
