package rerank

import (
	"context"
	"math"

	"github.com/tunerec/tunerec/core"
	"github.com/tunerec/tunerec/pipeline"
	"github.com/tunerec/tunerec/pkg/utils"
)

const (
	// DefaultTempoBucketWidth 速度分桶宽度（BPM）
	DefaultTempoBucketWidth = 20.0

	// DefaultMaxPerKey / DefaultMaxPerTempoBucket 同调式/同速度桶在已接受集合中的上限
	DefaultMaxPerKey         = 2
	DefaultMaxPerTempoBucket = 2
)

// Diversity 是多样性重排节点：避免结果被同调式、同速度的歌曲扎堆占满。
//
// 策略：按分数序遍历候选，前 ⌊limit/2⌋ 个槽位无条件接受（保证结果前半段
// 永远是纯粹的最高分内容），之后若接受某候选会使其调式或速度桶
// 在已接受集合中超过上限则跳过；接受满 limit 即停。
// 走完仍不满 limit 时回填被跳过者，保证结果数量不缩水：每次取
// 已接受集合中调式+速度桶代表度最低的一个（同代表度取分数更高者），
// 只有在数学上不可避免时聚类上限才会被突破。
type Diversity struct {
	// Limit 目标结果数；<=0 时取 rctx.Limit
	Limit int

	// TempoBucketWidth 速度分桶宽度（BPM）；<=0 时取 DefaultTempoBucketWidth
	TempoBucketWidth float64

	// MaxPerKey / MaxPerTempoBucket 上限；<=0 时取默认值
	MaxPerKey         int
	MaxPerTempoBucket int
}

func (n *Diversity) Name() string        { return "rerank.diversity" }
func (n *Diversity) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *Diversity) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	limit := n.Limit
	if limit <= 0 && rctx != nil {
		limit = rctx.Limit
	}
	if limit <= 0 || len(items) <= limit {
		return items, nil
	}

	bucketWidth := n.TempoBucketWidth
	if bucketWidth <= 0 {
		bucketWidth = DefaultTempoBucketWidth
	}
	maxPerKey := n.MaxPerKey
	if maxPerKey <= 0 {
		maxPerKey = DefaultMaxPerKey
	}
	maxPerBucket := n.MaxPerTempoBucket
	if maxPerBucket <= 0 {
		maxPerBucket = DefaultMaxPerTempoBucket
	}

	freeSlots := limit / 2
	keyCount := make(map[int]int)
	bucketCount := make(map[int]int)
	accepted := make([]*core.Item, 0, limit)
	var rejected []*core.Item

	for _, it := range items {
		if len(accepted) >= limit {
			break
		}
		if it == nil || it.Song == nil {
			continue
		}
		key := it.Song.Key
		bucket := int(math.Floor(it.Song.Tempo / bucketWidth))

		if len(accepted) >= freeSlots &&
			(keyCount[key] >= maxPerKey || bucketCount[bucket] >= maxPerBucket) {
			it.PutLabel("diversity_skipped", utils.Label{Value: "cluster_cap", Source: "rerank"})
			rejected = append(rejected, it)
			continue
		}

		keyCount[key]++
		bucketCount[bucket]++
		accepted = append(accepted, it)
	}

	// 回填：多样性约束过紧时宁可重复也不少给，但优先补代表度最低的聚类
	for len(accepted) < limit && len(rejected) > 0 {
		best, bestLoad := 0, -1
		for i, it := range rejected {
			bucket := int(math.Floor(it.Song.Tempo / bucketWidth))
			load := keyCount[it.Song.Key] + bucketCount[bucket]
			if bestLoad < 0 || load < bestLoad {
				best, bestLoad = i, load
			}
		}
		it := rejected[best]
		keyCount[it.Song.Key]++
		bucketCount[int(math.Floor(it.Song.Tempo/bucketWidth))]++
		accepted = append(accepted, it)
		rejected = append(rejected[:best], rejected[best+1:]...)
	}

	return accepted, nil
}
