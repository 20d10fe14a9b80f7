package core

import "context"

// SongStore 是歌曲/评分持久层的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由调用方的持久化实现注入
//   - 本引擎只读：评分写入、平均分维护由持久层自己负责
type SongStore interface {
	// GetQualifyingRatings 获取用户评分不低于 minRating 的歌曲快照（按评分降序，至多 max 条）。
	// 每条记录携带歌曲特征向量。
	GetQualifyingRatings(ctx context.Context, userID string, minRating float64, max int) ([]RatedSong, error)

	// GetUnratedCandidates 获取用户尚未评分（任意分值）的候选歌曲，至多 max 条。
	GetUnratedCandidates(ctx context.Context, userID string, max int) ([]CandidateSong, error)

	// GetPopularSongs 获取全站热门歌曲（average_rating 降序，rating_count 降序），至多 max 条。
	GetPopularSongs(ctx context.Context, max int) ([]CandidateSong, error)
}

// Store 是缓存存储的领域接口（描述缓存、热门榜单等进程外状态）。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（store）实现
//   - 遵循依赖倒置：领域层不依赖具体存储后端
//
// 实现：
//   - store.MemoryStore 实现此接口（进程内，TTL 惰性过期 + 周期清理）
//   - store.RedisStore 实现此接口（跨进程共享缓存）
type Store interface {
	// Name 返回存储后端名称（用于日志/监控）
	Name() string

	// Get 读取单个 key 的值；key 不存在或已过期返回 ErrStoreNotFound
	Get(ctx context.Context, key string) ([]byte, error)

	// Set 写入单个 key-value，可选 TTL（秒）；同 key 重复写入为幂等覆盖
	Set(ctx context.Context, key string, value []byte, ttl ...int) error

	// Delete 删除单个 key
	Delete(ctx context.Context, key string) error

	// Close 关闭连接/释放资源
	Close() error
}

// KeyValueStore 是 Store 的扩展接口，支持有序集合操作（热门榜单）。
// 如果后端不支持某些操作，可返回 ErrStoreNotSupported。
type KeyValueStore interface {
	Store

	// ZAdd 向有序集合添加成员（用于热门榜单）
	ZAdd(ctx context.Context, key string, score float64, member string) error

	// ZRange 按分数降序获取有序集合成员（用于 TopN 热门召回）
	ZRange(ctx context.Context, key string, start, stop int64) ([]string, error)
}

// Store 错误定义（使用统一的 DomainError）
var (
	// ErrStoreNotFound 表示 key 不存在
	ErrStoreNotFound = NewDomainError(ModuleStore, ErrorCodeNotFound, "store: key not found")

	// ErrStoreNotSupported 表示操作不支持
	ErrStoreNotSupported = NewDomainError(ModuleStore, ErrorCodeNotSupported, "store: operation not supported")
)

// IsStoreNotFound 检查错误是否为 key 不存在。
func IsStoreNotFound(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil && domainErr.Module == ModuleStore {
		return domainErr.Code == ErrorCodeNotFound
	}
	return false
}
