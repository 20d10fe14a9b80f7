package rank

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/tunerec/tunerec/core"
	"github.com/tunerec/tunerec/pipeline"
	"github.com/tunerec/tunerec/pkg/utils"
)

// 打分权重与放大系数。两套权重各自求和为 1.0：
// 有分类器时分类器主导，否则余弦相似度主导。
const (
	weightClassifier    = 0.5
	weightCosineWithClf = 0.3
	weightPopWithClf    = 0.2

	weightCosine = 0.7
	weightPop    = 0.3

	// amplifyExp 幂放大指数：把分数从中间区拉开，排序更有区分度
	amplifyExp = 1.5

	// 高口碑加成：放大后加 0.05（按 40 分跨度折算约 +2 个匹配百分点）。
	// 加成发生在排序之前，保证归一化后的 match_score 随名次单调不增。
	popularityBonus         = 0.05
	popularityBonusMinAvg   = 4.5
	popularityBonusMinCount = 10
)

// TasteNode 是口味打分节点：用 rctx.Profile 对每个候选计算相关度分数。
//
// 打分策略随画像的数据可用性自动切换（同一节点，不做平行实现）：
//   - 画像带分类器: raw = 0.5*clf + 0.3*cosine + 0.2*popularity
//   - 纯余弦策略:   raw = 0.7*cosine + 0.3*popularity
//
// 之后 final = raw^1.5（放大）+ 高口碑加成，写入 reason 与 explain labels，
// 最后按 final 稳定降序排序——相同输入必得相同顺序。
type TasteNode struct {
	// MaxParallel 打分并发上限；<=1 时串行。各候选独立打分，并发只是性能优化
	MaxParallel int
}

func (n *TasteNode) Name() string        { return "rank.taste" }
func (n *TasteNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *TasteNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if rctx == nil || rctx.Profile == nil || len(items) == 0 {
		return items, nil
	}
	p := rctx.Profile

	if n.MaxParallel > 1 {
		eg, _ := errgroup.WithContext(ctx)
		eg.SetLimit(n.MaxParallel)
		for _, it := range items {
			item := it
			eg.Go(func() error {
				scoreItem(p, item)
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return nil, err
		}
	} else {
		for _, it := range items {
			scoreItem(p, it)
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i] == nil {
			return false
		}
		if items[j] == nil {
			return true
		}
		return items[i].Score > items[j].Score
	})
	return items, nil
}

func scoreItem(p *core.TasteProfile, it *core.Item) {
	if it == nil || it.Song == nil {
		return
	}
	song := it.Song

	cos := p.Centroid.Cosine(song.Features)
	rangeScore := p.RangeScore(song.Features)

	popScore := 0.0
	if song.RatingCount > 0 {
		popScore = math.Min(1.0, song.AverageRating/5.0)
	}

	var raw float64
	modelName := "cosine"
	if p.Classifier != nil {
		clfScore := 0.5
		if prob, err := p.Classifier.Predict(song.Features.AsMap()); err == nil {
			clfScore = prob
		}
		raw = weightClassifier*clfScore + weightCosineWithClf*cos + weightPopWithClf*popScore
		modelName = p.Classifier.Name()
	} else {
		raw = weightCosine*cos + weightPop*popScore
	}

	final := math.Pow(math.Max(raw, 0), amplifyExp)
	if song.AverageRating >= popularityBonusMinAvg && song.RatingCount >= popularityBonusMinCount {
		final += popularityBonus
	}

	it.Score = final
	it.Reason = buildReason(p, song, cos)
	it.PutLabel("rank_model", utils.Label{Value: modelName, Source: "rank"})
	it.PutLabel("cosine", utils.Label{Value: fmt.Sprintf("%.3f", cos), Source: "rank"})
	it.PutLabel("range_score", utils.Label{Value: fmt.Sprintf("%.3f", rangeScore), Source: "rank"})
}

// buildReason 从相似度与风格关键词装配推荐理由。
func buildReason(p *core.TasteProfile, song *core.CandidateSong, cos float64) string {
	if cos > 0.8 {
		return "Very similar to your top songs"
	}

	var reasons []string
	f := song.Features
	if f.Energy > 0.7 && p.HasKeyword("high-energy") {
		reasons = append(reasons, "high energy")
	}
	if f.Energy < 0.3 && p.HasKeyword("chill") {
		reasons = append(reasons, "calm and relaxed feel")
	}
	if f.Valence > 0.7 && p.HasKeyword("upbeat") {
		reasons = append(reasons, "upbeat and positive mood")
	}
	if f.Valence < 0.3 && p.HasKeyword("emotional") {
		reasons = append(reasons, "emotional depth")
	}
	if f.Danceability > 0.7 {
		reasons = append(reasons, "danceable groove")
	}
	if f.Acousticness > 0.5 {
		reasons = append(reasons, "acoustic style")
	}

	if len(reasons) == 0 {
		return "Matches your music taste"
	}
	if len(reasons) > 2 {
		reasons = reasons[:2]
	}
	return "Recommended for its " + strings.Join(reasons, " and ")
}
