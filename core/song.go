package core

import "math"

// 音频特征归一化基准：tempo 以 250 BPM 为参考上限，loudness 以 [-60, 0] dB 映射到 [0,1]。
const (
	TempoRefMax   = 250.0
	LoudnessFloor = -60.0
)

// FeatureNames 是特征向量各分量的规范名称（与 AsMap / 分类器特征键一致）。
var FeatureNames = []string{
	"energy", "valence", "danceability", "acousticness",
	"tempo", "instrumentalness", "loudness", "liveness",
}

// FeatureVector 是歌曲音频属性的归一化数值表示。
// 所有分量在构造时被归一化并收敛到 [0,1]，可直接参与余弦相似度计算。
type FeatureVector struct {
	Energy           float64
	Valence          float64
	Danceability     float64
	Acousticness     float64
	Tempo            float64 // 已归一化（rawBPM / TempoRefMax）
	Instrumentalness float64
	Loudness         float64 // 已归一化（(rawDB - LoudnessFloor) / -LoudnessFloor）
	Liveness         float64
}

// NewFeatureVector 从原始音频属性构造特征向量。
// tempo 传原始 BPM，loudness 传原始 dB（通常为负值），其余分量应已在 [0,1]。
// 越界值在构造时收敛，保证不合法输入不会进入打分链路。
func NewFeatureVector(energy, valence, danceability, acousticness, tempo, instrumentalness, loudness, liveness float64) FeatureVector {
	return FeatureVector{
		Energy:           clamp01(energy),
		Valence:          clamp01(valence),
		Danceability:     clamp01(danceability),
		Acousticness:     clamp01(acousticness),
		Tempo:            clamp01(tempo / TempoRefMax),
		Instrumentalness: clamp01(instrumentalness),
		Loudness:         clamp01((loudness - LoudnessFloor) / -LoudnessFloor),
		Liveness:         clamp01(liveness),
	}
}

// Vector 返回与 FeatureNames 顺序一致的分量切片。
func (v FeatureVector) Vector() []float64 {
	return []float64{
		v.Energy, v.Valence, v.Danceability, v.Acousticness,
		v.Tempo, v.Instrumentalness, v.Loudness, v.Liveness,
	}
}

// AsMap 返回特征名到分量值的映射，供分类器与偏好区间使用。
func (v FeatureVector) AsMap() map[string]float64 {
	vec := v.Vector()
	m := make(map[string]float64, len(FeatureNames))
	for i, name := range FeatureNames {
		m[name] = vec[i]
	}
	return m
}

// Cosine 计算两个特征向量的余弦相似度。任一向量为零向量时返回 0。
func (v FeatureVector) Cosine(other FeatureVector) float64 {
	a, b := v.Vector(), other.Vector()
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// IsZero 判断向量是否为零向量（常见于持久层缺失特征的候选，需要特征补全）。
func (v FeatureVector) IsZero() bool {
	for _, x := range v.Vector() {
		if x != 0 {
			return false
		}
	}
	return true
}

func clamp01(x float64) float64 {
	if math.IsNaN(x) || x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// RatedSong 是用户评分过的歌曲快照，随请求创建、随请求丢弃。
type RatedSong struct {
	SongID   string
	Title    string
	Rating   float64 // [0,5]
	Features FeatureVector
	Key      int     // 音乐调式 [0,11]
	Tempo    float64 // 原始 BPM
}

// CandidateSong 是待打分的候选歌曲快照。
type CandidateSong struct {
	SongID        string
	Title         string
	Features      FeatureVector
	Key           int
	Tempo         float64 // 原始 BPM
	AverageRating float64 // 全站平均评分 [0,5]
	RatingCount   int
}
