// Package profile 从用户评分历史构建口味画像（TasteProfile）。
package profile

import (
	"context"
	"math"

	"github.com/tunerec/tunerec/core"
	"github.com/tunerec/tunerec/describe"
	"github.com/tunerec/tunerec/model"
)

const (
	// DefaultMinRatings 个性化所需的最少合格评分数；不足则返回 ErrInsufficientSignal
	DefaultMinRatings = 3

	// DefaultClassifierMinRatings 训练二分类器所需的最少合格评分数（高于个性化阈值）
	DefaultClassifierMinRatings = 5

	// DefaultLikedThreshold 评分达到该值视为"喜欢"（分类器正样本）
	DefaultLikedThreshold = 4.0

	// DefaultStddev 样本不足 2 条时的兜底标准差，避免零宽偏好区间
	DefaultStddev = 0.2
)

// Builder 把一个用户的合格评分列表变成口味画像。
// 画像每次请求重新构建；仅描述分量经 Describer 的缓存跨请求存活。
type Builder struct {
	// MinRatings 个性化阈值；<=0 时取 DefaultMinRatings
	MinRatings int

	// ClassifierMinRatings 分类器训练阈值；<=0 时取 DefaultClassifierMinRatings
	ClassifierMinRatings int

	// LikedThreshold 喜欢阈值；<=0 时取 DefaultLikedThreshold
	LikedThreshold float64

	// Describer 口味描述生成器（可选；为 nil 时 Description 留空）
	Describer *describe.Describer
}

// Build 构建口味画像。
// 合格评分数低于个性化阈值时返回 core.ErrInsufficientSignal——这是预期结果，
// 由 Engine 路由到热门兜底分支，不是失败。
func (b *Builder) Build(ctx context.Context, userID string, ratings []core.RatedSong) (*core.TasteProfile, error) {
	minRatings := b.MinRatings
	if minRatings <= 0 {
		minRatings = DefaultMinRatings
	}
	if len(ratings) < minRatings {
		return nil, core.ErrInsufficientSignal
	}

	p := &core.TasteProfile{
		Centroid:        centroid(ratings),
		PreferredRanges: preferredRanges(ratings),
	}
	p.StyleKeywords = styleKeywords(p.Centroid)
	p.Classifier = b.trainClassifier(ratings)

	if b.Describer != nil {
		p.Description = b.Describer.Describe(ctx, userID, ratings)
	}
	return p, nil
}

// centroid 计算按 rating/5 加权的质心向量。
func centroid(ratings []core.RatedSong) core.FeatureVector {
	dims := len(core.FeatureNames)
	sums := make([]float64, dims)
	var weightSum float64

	for _, r := range ratings {
		w := r.Rating / 5.0
		vec := r.Features.Vector()
		for i := range sums {
			sums[i] += w * vec[i]
		}
		weightSum += w
	}
	if weightSum == 0 {
		return core.FeatureVector{}
	}

	return core.FeatureVector{
		Energy:           sums[0] / weightSum,
		Valence:          sums[1] / weightSum,
		Danceability:     sums[2] / weightSum,
		Acousticness:     sums[3] / weightSum,
		Tempo:            sums[4] / weightSum,
		Instrumentalness: sums[5] / weightSum,
		Loudness:         sums[6] / weightSum,
		Liveness:         sums[7] / weightSum,
	}
}

// preferredRanges 计算逐特征的偏好区间：[均值-标准差, 均值+标准差]，裁剪到 [0,1]。
func preferredRanges(ratings []core.RatedSong) map[string]core.Range {
	ranges := make(map[string]core.Range, len(core.FeatureNames))
	n := float64(len(ratings))

	for i, name := range core.FeatureNames {
		var sum float64
		for _, r := range ratings {
			sum += r.Features.Vector()[i]
		}
		mean := sum / n

		stddev := DefaultStddev
		if len(ratings) >= 2 {
			var varSum float64
			for _, r := range ratings {
				d := r.Features.Vector()[i] - mean
				varSum += d * d
			}
			stddev = math.Sqrt(varSum / n)
		}

		ranges[name] = core.Range{
			Min: math.Max(0, mean-stddev),
			Max: math.Min(1, mean+stddev),
		}
	}
	return ranges
}

// styleKeywords 由质心阈值推导风格关键词。
func styleKeywords(c core.FeatureVector) []string {
	var kws []string
	if c.Energy > 0.7 {
		kws = append(kws, "high-energy")
	}
	if c.Energy < 0.3 {
		kws = append(kws, "chill")
	}
	if c.Valence > 0.7 {
		kws = append(kws, "upbeat")
	}
	if c.Valence < 0.3 {
		kws = append(kws, "emotional")
	}
	if c.Danceability > 0.7 {
		kws = append(kws, "danceable")
	}
	return kws
}

// trainClassifier 在评分数达到训练阈值时拟合逻辑回归分类器。
// 拟合失败（如只有单一类别）时静默省略——打分链路会退回纯余弦策略。
func (b *Builder) trainClassifier(ratings []core.RatedSong) core.Classifier {
	minTrain := b.ClassifierMinRatings
	if minTrain <= 0 {
		minTrain = DefaultClassifierMinRatings
	}
	if len(ratings) < minTrain {
		return nil
	}

	liked := b.LikedThreshold
	if liked <= 0 {
		liked = DefaultLikedThreshold
	}

	examples := make([]model.Example, 0, len(ratings))
	for _, r := range ratings {
		label := 0.0
		if r.Rating >= liked {
			label = 1.0
		}
		examples = append(examples, model.Example{Features: r.Features.AsMap(), Label: label})
	}

	clf, err := model.FitLR(examples, 0, 0)
	if err != nil {
		return nil
	}
	return clf
}
