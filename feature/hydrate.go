// Package feature 提供候选补全节点：召回出来的歌曲若缺少音频特征
// （比如热门榜兜底召回只有歌曲 ID），从特征平台在线补齐后再进打分。
package feature

import (
	"context"
	"strings"

	"github.com/tunerec/tunerec/core"
	"github.com/tunerec/tunerec/feast"
	"github.com/tunerec/tunerec/pipeline"
	"github.com/tunerec/tunerec/pkg/conv"
	"github.com/tunerec/tunerec/pkg/utils"
)

// DefaultEntityKey 实体主键名
const DefaultEntityKey = "song_id"

// DefaultFeatureView 音频特征所在的 feature view
const DefaultFeatureView = "song_features"

// Hydrate 是特征补全节点：对特征向量为零值的候选，批量请求 Feast
// 在线特征并回填。补全失败（平台不可用、特征缺失）只跳过该候选，
// 不会让整条链路失败——缺特征的候选留给下游按零向量处理。
type Hydrate struct {
	// Client Feast 客户端；为 nil 时节点不做任何事
	Client feast.Client

	// Project Feast 项目名；为空时用客户端默认值
	Project string

	// FeatureRefs 要获取的特征引用；为空时按 core.FeatureNames
	// 生成 "song_features:<name>"
	FeatureRefs []string

	// EntityKey 实体主键名；为空时取 DefaultEntityKey
	EntityKey string
}

func (n *Hydrate) Name() string        { return "feature.hydrate" }
func (n *Hydrate) Kind() pipeline.Kind { return pipeline.KindRecall }

func (n *Hydrate) Process(
	ctx context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.Client == nil || len(items) == 0 {
		return items, nil
	}

	// 只补缺特征的候选
	var pending []*core.Item
	for _, it := range items {
		if it != nil && it.Song != nil && it.Song.Features.IsZero() {
			pending = append(pending, it)
		}
	}
	if len(pending) == 0 {
		return items, nil
	}

	entityKey := n.EntityKey
	if entityKey == "" {
		entityKey = DefaultEntityKey
	}
	refs := n.FeatureRefs
	if len(refs) == 0 {
		refs = make([]string, 0, len(core.FeatureNames))
		for _, name := range core.FeatureNames {
			refs = append(refs, DefaultFeatureView+":"+name)
		}
	}

	entityRows := make([]map[string]interface{}, len(pending))
	for i, it := range pending {
		entityRows[i] = map[string]interface{}{entityKey: it.Song.SongID}
	}

	resp, err := n.Client.GetOnlineFeatures(ctx, &feast.GetOnlineFeaturesRequest{
		Features:   refs,
		EntityRows: entityRows,
		Project:    n.Project,
	})
	if err != nil {
		// 特征平台故障时原样放行
		return items, nil
	}
	if len(resp.FeatureVectors) != len(pending) {
		return items, nil
	}

	for i, it := range pending {
		values := resp.FeatureVectors[i].Values
		if len(values) == 0 {
			continue
		}
		featureMap := make(map[string]float64, len(values))
		for ref, v := range values {
			// 特征引用 "song_features:energy" 还原为短名 "energy"
			name := ref
			if idx := strings.LastIndex(ref, ":"); idx >= 0 {
				name = ref[idx+1:]
			}
			if f, ok := conv.ToFloat64(v); ok {
				featureMap[name] = f
			}
		}
		if len(featureMap) == 0 {
			continue
		}
		it.Song.Features = core.NewFeatureVector(
			featureMap["energy"],
			featureMap["valence"],
			featureMap["danceability"],
			featureMap["acousticness"],
			featureMap["tempo"],
			featureMap["instrumentalness"],
			featureMap["loudness"],
			featureMap["liveness"],
		)
		if tempo, ok := featureMap["tempo"]; ok && it.Song.Tempo == 0 {
			it.Song.Tempo = tempo
		}
		if key, ok := featureMap["key"]; ok && it.Song.Key == 0 {
			it.Song.Key = int(key)
		}
		it.PutLabel("hydrated", utils.Label{Value: "feast", Source: "feature"})
	}
	return items, nil
}
