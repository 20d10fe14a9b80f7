// Package config 提供 Pipeline 配置到 Node 实例的装配工厂。
// 存储、特征平台等运行期依赖无法从配置文件表达，通过 Deps 注入。
package config

import (
	"fmt"
	"time"

	"github.com/tunerec/tunerec/core"
	"github.com/tunerec/tunerec/feast"
	"github.com/tunerec/tunerec/feature"
	"github.com/tunerec/tunerec/filter"
	"github.com/tunerec/tunerec/pipeline"
	"github.com/tunerec/tunerec/pkg/conv"
	"github.com/tunerec/tunerec/rank"
	"github.com/tunerec/tunerec/recall"
	"github.com/tunerec/tunerec/rerank"
)

// Deps 是工厂装配 Node 时用到的运行期依赖。
type Deps struct {
	// Store 歌曲/评分持久层
	Store core.SongStore

	// Rated 已评分记录存储（filter.rated 用）；为 nil 时该过滤器不可用
	Rated filter.RatedStore

	// KV 热门榜单等 KV 存储（recall.popular 兜底用）
	KV core.KeyValueStore

	// Features 特征平台客户端（feature.hydrate 用）
	Features feast.Client
}

// DefaultFactory 返回注册了全部内置 Node 的工厂。
func DefaultFactory(deps Deps) *pipeline.NodeFactory {
	factory := pipeline.NewNodeFactory()

	// Recall
	factory.Register("recall.unrated", func(cfg map[string]interface{}) (pipeline.Node, error) {
		return buildUnratedNode(deps, cfg)
	})
	factory.Register("recall.popular", func(cfg map[string]interface{}) (pipeline.Node, error) {
		return buildPopularNode(deps, cfg)
	})
	factory.Register("recall.fanout", func(cfg map[string]interface{}) (pipeline.Node, error) {
		return buildFanoutNode(deps, cfg)
	})

	// Feature
	factory.Register("feature.hydrate", func(cfg map[string]interface{}) (pipeline.Node, error) {
		return buildHydrateNode(deps, cfg)
	})

	// Filter
	factory.Register("filter", func(cfg map[string]interface{}) (pipeline.Node, error) {
		return buildFilterNode(deps, cfg)
	})

	// Rank
	factory.Register("rank.taste", buildTasteNode)

	// ReRank
	factory.Register("rerank.diversity", buildDiversityNode)
	factory.Register("rerank.topn", buildTopNNode)
	factory.Register("rerank.match_percent", buildMatchPercentNode)

	return factory
}

func buildUnratedNode(deps Deps, cfg map[string]interface{}) (pipeline.Node, error) {
	if deps.Store == nil {
		return nil, fmt.Errorf("recall.unrated requires a song store")
	}
	return &recall.Unrated{
		Store:      deps.Store,
		Oversample: conv.ConfigGetInt(cfg, "oversample", 0),
	}, nil
}

func buildPopularNode(deps Deps, cfg map[string]interface{}) (pipeline.Node, error) {
	node := &recall.Popular{
		Store: deps.Store,
		KV:    deps.KV,
		Key:   conv.ConfigGet[string](cfg, "key", ""),
		Max:   conv.ConfigGetInt(cfg, "max", 0),
	}
	if node.Store == nil && (node.KV == nil || node.Key == "") {
		return nil, fmt.Errorf("recall.popular requires a song store or a kv ranking key")
	}
	return node, nil
}

func buildFanoutNode(deps Deps, cfg map[string]interface{}) (pipeline.Node, error) {
	sourcesCfg, ok := cfg["sources"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("sources not found or invalid")
	}

	sources := make([]recall.Source, 0, len(sourcesCfg))
	for _, sc := range sourcesCfg {
		sourceMap, ok := sc.(map[string]interface{})
		if !ok {
			continue
		}
		sourceType := conv.ConfigGet[string](sourceMap, "type", "")
		switch sourceType {
		case "unrated":
			node, err := buildUnratedNode(deps, sourceMap)
			if err != nil {
				return nil, err
			}
			sources = append(sources, node.(*recall.Unrated))
		case "popular":
			node, err := buildPopularNode(deps, sourceMap)
			if err != nil {
				return nil, err
			}
			sources = append(sources, node.(*recall.Popular))
		default:
			return nil, fmt.Errorf("unknown source type: %s", sourceType)
		}
	}

	fanout := &recall.Fanout{
		Sources: sources,
		Dedup:   conv.ConfigGet[bool](cfg, "dedup", true),
	}
	if sec := conv.ConfigGetInt(cfg, "timeout", 0); sec > 0 {
		fanout.Timeout = time.Duration(sec) * time.Second
	}
	if n := conv.ConfigGetInt(cfg, "max_concurrent", 0); n > 0 {
		fanout.MaxConcurrent = n
	}
	return fanout, nil
}

func buildHydrateNode(deps Deps, cfg map[string]interface{}) (pipeline.Node, error) {
	if deps.Features == nil {
		return nil, fmt.Errorf("feature.hydrate requires a feature platform client")
	}
	node := &feature.Hydrate{
		Client:    deps.Features,
		Project:   conv.ConfigGet[string](cfg, "project", ""),
		EntityKey: conv.ConfigGet[string](cfg, "entity_key", ""),
	}
	if refs, ok := cfg["feature_refs"].([]interface{}); ok {
		for _, r := range refs {
			if s, ok := r.(string); ok {
				node.FeatureRefs = append(node.FeatureRefs, s)
			}
		}
	}
	return node, nil
}

func buildFilterNode(deps Deps, cfg map[string]interface{}) (pipeline.Node, error) {
	var filters []filter.Filter

	if conv.ConfigGet[bool](cfg, "rated", false) {
		if deps.Rated == nil {
			return nil, fmt.Errorf("filter rated=true requires a rated-song store")
		}
		filters = append(filters, &filter.Rated{Store: deps.Rated})
	}

	if exprs, ok := cfg["exprs"].([]interface{}); ok {
		for _, e := range exprs {
			if s, ok := e.(string); ok && s != "" {
				filters = append(filters, &filter.Expr{Expression: s})
			}
		}
	}

	return &filter.Node{Filters: filters}, nil
}

func buildTasteNode(cfg map[string]interface{}) (pipeline.Node, error) {
	return &rank.TasteNode{
		MaxParallel: conv.ConfigGetInt(cfg, "max_parallel", 0),
	}, nil
}

func buildDiversityNode(cfg map[string]interface{}) (pipeline.Node, error) {
	return &rerank.Diversity{
		Limit:             conv.ConfigGetInt(cfg, "limit", 0),
		TempoBucketWidth:  conv.ConfigGetFloat(cfg, "tempo_bucket_width", 0),
		MaxPerKey:         conv.ConfigGetInt(cfg, "max_per_key", 0),
		MaxPerTempoBucket: conv.ConfigGetInt(cfg, "max_per_tempo_bucket", 0),
	}, nil
}

func buildTopNNode(cfg map[string]interface{}) (pipeline.Node, error) {
	return &rerank.TopN{
		N: conv.ConfigGetInt(cfg, "n", 0),
	}, nil
}

func buildMatchPercentNode(cfg map[string]interface{}) (pipeline.Node, error) {
	return &rerank.MatchPercent{
		Base: conv.ConfigGetFloat(cfg, "base", 0),
		Span: conv.ConfigGetFloat(cfg, "span", 0),
	}, nil
}
