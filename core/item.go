package core

import "github.com/tunerec/tunerec/pkg/utils"

// Item 是推荐链路中的统一承载结构：候选歌曲、分数、推荐理由、标签。
// Labels 用于解释与策略驱动；Score 用于排序决策。
type Item struct {
	Song   *CandidateSong
	Score  float64
	Reason string
	Labels map[string]utils.Label
}

func NewItem(song *CandidateSong) *Item {
	return &Item{
		Song:   song,
		Score:  0,
		Labels: make(map[string]utils.Label),
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}
