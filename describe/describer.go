package describe

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/tunerec/tunerec/core"
)

const (
	// DefaultTTL 描述缓存的默认存活时间
	DefaultTTL = 24 * time.Hour

	// DefaultTimeout 外部文本生成调用的默认超时；超时与任何其他失败同等对待（规则兜底）
	DefaultTimeout = 5 * time.Second

	// DefaultTopTitles 提示词中最多携带的喜欢歌曲标题数
	DefaultTopTitles = 5

	// EmptyTasteDescription 没有任何"喜欢"记录时的固定描述
	EmptyTasteDescription = "Still discovering your preferences"

	likedThreshold = 4.0
)

// Generator 是外部文本生成服务的领域接口。
// 实现可能因超时、配额、响应畸形而失败；Describer 捕获一切失败并规则兜底，绝不上抛。
type Generator interface {
	Describe(ctx context.Context, prompt string) (string, error)
}

// Describer 生成用户口味的自然语言描述。
//
// 缓存策略：key 为 user + 喜欢歌曲评分集的内容哈希，进程级共享、TTL 过期；
// 相同评分集在 TTL 窗口内至多触发一次外部调用。同 key 并发写入为幂等覆盖。
type Describer struct {
	// Generator 外部文本生成依赖；为 nil 时直接走规则兜底
	Generator Generator

	// Cache 描述缓存（依赖注入，可替换为 Redis 等分布式实现）
	Cache core.Store

	// TTL 缓存存活时间；<=0 时取 DefaultTTL
	TTL time.Duration

	// Timeout 外部调用超时；<=0 时取 DefaultTimeout
	Timeout time.Duration
}

// Describe 为用户生成口味描述。输入为合格评分列表，内部取"喜欢"子集（评分 ≥ 4.0）。
// 此方法从不返回错误：外部依赖失败时退化为确定性的规则描述。
func (d *Describer) Describe(ctx context.Context, userID string, ratings []core.RatedSong) string {
	liked := likedSubset(ratings)
	if len(liked) == 0 {
		return EmptyTasteDescription
	}

	key := cacheKey(userID, liked)
	if d.Cache != nil {
		if cached, err := d.Cache.Get(ctx, key); err == nil && len(cached) > 0 {
			return string(cached)
		}
	}

	desc := d.generate(ctx, liked)

	if d.Cache != nil {
		ttl := d.TTL
		if ttl <= 0 {
			ttl = DefaultTTL
		}
		// 写失败只影响缓存命中率，不影响本次结果
		_ = d.Cache.Set(ctx, key, []byte(desc), int(ttl/time.Second))
	}
	return desc
}

func (d *Describer) generate(ctx context.Context, liked []core.RatedSong) string {
	if d.Generator == nil {
		return RuleDescription(liked)
	}

	timeout := d.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	genCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	desc, err := d.Generator.Describe(genCtx, BuildPrompt(liked))
	desc = strings.TrimSpace(desc)
	if err != nil || desc == "" {
		return RuleDescription(liked)
	}
	return desc
}

// BuildPrompt 由喜欢歌曲的标题与特征均值构造提示词。
func BuildPrompt(liked []core.RatedSong) string {
	titles := make([]string, 0, DefaultTopTitles)
	for i, r := range liked {
		if i >= DefaultTopTitles {
			break
		}
		titles = append(titles, r.Title)
	}
	energy, valence, danceability := featureAverages(liked)
	return fmt.Sprintf(
		"The user loves these songs: %s. Average audio profile: energy %.2f, valence %.2f, danceability %.2f. "+
			"Describe their music taste to them in one short sentence.",
		strings.Join(titles, ", "), energy, valence, danceability,
	)
}

// RuleDescription 是确定性的规则兜底描述：按特征均值落入固定短语桶。
func RuleDescription(liked []core.RatedSong) string {
	if len(liked) == 0 {
		return EmptyTasteDescription
	}
	energy, valence, danceability := featureAverages(liked)

	parts := make([]string, 0, 3)
	switch {
	case energy > 0.7:
		parts = append(parts, "high-energy")
	case energy < 0.3:
		parts = append(parts, "chill")
	default:
		parts = append(parts, "balanced")
	}
	switch {
	case valence > 0.7:
		parts = append(parts, "upbeat")
	case valence < 0.3:
		parts = append(parts, "emotional")
	default:
		parts = append(parts, "varied mood")
	}
	if danceability > 0.7 {
		parts = append(parts, "danceable")
	}

	return "Enjoys " + strings.Join(parts, " ") + " music"
}

func likedSubset(ratings []core.RatedSong) []core.RatedSong {
	liked := make([]core.RatedSong, 0, len(ratings))
	for _, r := range ratings {
		if r.Rating >= likedThreshold {
			liked = append(liked, r)
		}
	}
	return liked
}

func featureAverages(liked []core.RatedSong) (energy, valence, danceability float64) {
	if len(liked) == 0 {
		return 0.5, 0.5, 0.5
	}
	for _, r := range liked {
		energy += r.Features.Energy
		valence += r.Features.Valence
		danceability += r.Features.Danceability
	}
	n := float64(len(liked))
	return energy / n, valence / n, danceability / n
}

// cacheKey 由 user + 排序后的 (song_id, rating) 对计算内容哈希。
// user 前缀保证不同用户即使评分集相同也不会互相串缓存。
func cacheKey(userID string, liked []core.RatedSong) string {
	pairs := make([]string, 0, len(liked))
	for _, r := range liked {
		pairs = append(pairs, fmt.Sprintf("%s:%.1f", r.SongID, r.Rating))
	}
	sort.Strings(pairs)
	sum := sha256.Sum256([]byte(userID + "|" + strings.Join(pairs, ",")))
	return "taste:desc:" + userID + ":" + hex.EncodeToString(sum[:])
}
