package core

import "math"

// Range 是单个特征的偏好区间 [Min, Max]，由均值 ± 标准差裁剪到 [0,1] 得到。
type Range struct {
	Min float64
	Max float64
}

// Contains 判断值是否落在偏好区间内。
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// DistanceOutside 返回值离区间的距离；区间内为 0。
func (r Range) DistanceOutside(v float64) float64 {
	if v < r.Min {
		return r.Min - v
	}
	if v > r.Max {
		return r.Max - v
	}
	return 0
}

// Classifier 是"喜欢/不喜欢"二分类器的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由 model 包实现（如逻辑回归）
//   - Predict 返回"喜欢"的预测概率 (0,1)
type Classifier interface {
	Name() string
	Predict(features map[string]float64) (float64, error)
}

// TasteProfile 是用户口味画像：打分链路的"全局上下文 + 决策信号"。
//
// 它不是某一个 Node，而是：
//   - 由 profile.Builder 每次请求重新构建
//   - 被 Rank / ReRank / 解释生成共享
//   - 仅 Description 分量经由缓存跨请求存活
type TasteProfile struct {
	// Centroid 是按 rating/5 加权的喜好质心向量
	Centroid FeatureVector

	// PreferredRanges 特征名 → 偏好区间（均值 ± 标准差，裁剪到 [0,1]）
	PreferredRanges map[string]Range

	// StyleKeywords 由质心阈值推导的风格关键词（high-energy / chill / upbeat ...）
	StyleKeywords []string

	// Classifier 可选的二分类器；仅当合格评分数达到训练阈值且拟合成功时存在
	Classifier Classifier

	// Description 口味的自然语言描述（外部生成或规则兜底，按内容哈希缓存）
	Description string
}

// HasKeyword 判断画像是否包含某个风格关键词。
func (p *TasteProfile) HasKeyword(kw string) bool {
	for _, k := range p.StyleKeywords {
		if k == kw {
			return true
		}
	}
	return false
}

// RangeScore 计算候选向量对偏好区间的符合度：
// 区间内计 1.0，区间外按 exp(-3*距离) 衰减，取所有区间的均值。
// 无可用区间时返回中性值 0.7。
// 按 FeatureNames 的固定顺序累加，保证浮点求和结果确定。
func (p *TasteProfile) RangeScore(features FeatureVector) float64 {
	if len(p.PreferredRanges) == 0 {
		return 0.7
	}
	m := features.AsMap()
	var sum float64
	var n int
	for _, name := range FeatureNames {
		r, ok := p.PreferredRanges[name]
		if !ok {
			continue
		}
		v, ok := m[name]
		if !ok {
			continue
		}
		if r.Contains(v) {
			sum += 1.0
		} else {
			sum += math.Exp(-3 * r.DistanceOutside(v))
		}
		n++
	}
	if n == 0 {
		return 0.7
	}
	return sum / float64(n)
}
