package model

import (
	"encoding/json"
	"errors"
	"math"
	"os"
	"sort"
)

// LRModel 实现了逻辑回归 (Logistic Regression) 模型。
// 在本引擎中充当"喜欢/不喜欢"二分类器：由用户评分历史在请求内在线拟合。
//
// 预测原理：
// 1. 线性加权求和: z = Bias + sum(Weight_i * Feature_i)
// 2. Sigmoid 变换: P = 1 / (1 + exp(-z))
//
// 最终输出值 P 代表"喜欢"的预测概率，范围在 (0, 1) 之间。
type LRModel struct {
	Bias    float64            // 偏置项 (Bias / Intercept)
	Weights map[string]float64 // 特征权重 (Weights / Coefficients)
}

func LoadLRModel(path string) (*LRModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw struct {
		Bias    float64            `json:"bias"`
		Weights map[string]float64 `json:"weights"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return &LRModel{Bias: raw.Bias, Weights: raw.Weights}, nil
}

func (m *LRModel) Name() string { return "lr" }

func (m *LRModel) Predict(features map[string]float64) (float64, error) {
	score := m.Bias
	for k, v := range features {
		if w, ok := m.Weights[k]; ok {
			score += w * v
		}
	}
	return 1 / (1 + math.Exp(-score)), nil
}

// Example 是一条训练样本：特征向量 + 二元标签（1 喜欢 / 0 不喜欢）。
type Example struct {
	Features map[string]float64
	Label    float64
}

// ErrSingleClass 表示训练集中只出现了一个类别，无法拟合出有意义的分类器。
// 调用方应捕获此错误并省略分类器，而不是向上抛出。
var ErrSingleClass = errors.New("model: training examples contain a single class")

// FitLR 用批量梯度下降拟合逻辑回归。
// 训练集很小（一个用户的评分历史），固定轮次即可收敛到够用的程度。
func FitLR(examples []Example, epochs int, learningRate float64) (*LRModel, error) {
	if len(examples) < 2 {
		return nil, errors.New("model: need at least 2 training examples")
	}
	var positives int
	for _, ex := range examples {
		if ex.Label >= 0.5 {
			positives++
		}
	}
	if positives == 0 || positives == len(examples) {
		return nil, ErrSingleClass
	}

	if epochs <= 0 {
		epochs = 200
	}
	if learningRate <= 0 {
		learningRate = 0.1
	}

	// 收集特征全集并固定遍历顺序，保证拟合结果确定
	nameSet := make(map[string]bool)
	for _, ex := range examples {
		for k := range ex.Features {
			nameSet[k] = true
		}
	}
	names := make([]string, 0, len(nameSet))
	for k := range nameSet {
		names = append(names, k)
	}
	sort.Strings(names)

	m := &LRModel{Weights: make(map[string]float64, len(names))}
	n := float64(len(examples))

	for epoch := 0; epoch < epochs; epoch++ {
		gradBias := 0.0
		grads := make(map[string]float64, len(names))
		for _, ex := range examples {
			// 按固定顺序累加，避免 map 遍历顺序影响浮点求和结果
			z := m.Bias
			for _, name := range names {
				z += m.Weights[name] * ex.Features[name]
			}
			p := 1 / (1 + math.Exp(-z))
			diff := p - ex.Label
			gradBias += diff
			for _, name := range names {
				grads[name] += diff * ex.Features[name]
			}
		}
		m.Bias -= learningRate * gradBias / n
		for _, name := range names {
			m.Weights[name] -= learningRate * grads[name] / n
		}
	}

	return m, nil
}
