// Package feast 封装 Feast 特征平台的在线特征访问。
// 推荐链路里只用到在线特征（召回出来的歌曲补全音频特征），
// 历史特征/物化等离线能力不在本包范围。
package feast

import (
	"context"
	"time"
)

// Client 是特征平台客户端的领域接口。
// 领域层只依赖这个接口，gRPC 实现见 grpc_client.go。
type Client interface {
	// GetOnlineFeatures 获取在线特征
	GetOnlineFeatures(ctx context.Context, req *GetOnlineFeaturesRequest) (*GetOnlineFeaturesResponse, error)

	// Close 关闭客户端连接
	Close() error
}

// GetOnlineFeaturesRequest 在线特征请求
type GetOnlineFeaturesRequest struct {
	// Features 特征引用列表，例如 "song_features:energy"
	Features []string

	// EntityRows 实体行，例如 [{"song_id": "42"}]
	EntityRows []map[string]interface{}

	// Project 项目名称；为空时取客户端默认值
	Project string
}

// FeatureVector 单个实体行的特征取值
type FeatureVector struct {
	Values    map[string]interface{}
	EntityRow map[string]interface{}
}

// GetOnlineFeaturesResponse 在线特征响应，行序与请求的 EntityRows 一致
type GetOnlineFeaturesResponse struct {
	FeatureVectors []FeatureVector
}

// ClientConfig 客户端配置
type ClientConfig struct {
	Endpoint string
	Project  string
	Timeout  time.Duration
	Auth     *AuthConfig
}

// AuthConfig 认证配置
type AuthConfig struct {
	// Type 认证类型，目前支持 "static"
	Type  string
	Token string
}

// ClientOption 客户端配置选项
type ClientOption func(*ClientConfig)

// WithTimeout 设置请求超时
func WithTimeout(d time.Duration) ClientOption {
	return func(c *ClientConfig) { c.Timeout = d }
}

// WithStaticAuth 设置静态 Token 认证
func WithStaticAuth(token string) ClientOption {
	return func(c *ClientConfig) {
		c.Auth = &AuthConfig{Type: "static", Token: token}
	}
}
