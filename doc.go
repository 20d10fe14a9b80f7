// Package tunerec 是一个音乐推荐打分引擎（Tune Recommender）。
//
// 设计要点：
// - Pipeline-first: 推荐流程由 Node 串联（Recall → Filter → Rank → ReRank）
// - 口味画像驱动: 由用户评分历史构建 TasteProfile，驱动打分与解释
// - 永不失败: Engine 以热门歌曲降级兜底，绝不向调用方抛错
package tunerec

import "github.com/tunerec/tunerec/pipeline"

// 轻量 facade：便于用户直接 import "tunerec" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindRecall      = pipeline.KindRecall
	KindFilter      = pipeline.KindFilter
	KindRank        = pipeline.KindRank
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)
