package core

import "github.com/tunerec/tunerec/pkg/utils"

// RecommendContext 承载用户/请求信息，贯穿整个 Pipeline 透传。
type RecommendContext struct {
	UserID string // 不透明的用户标识（鉴权层提供）
	Limit  int    // 期望返回的推荐条数

	// Profile 是本次请求构建的口味画像；热门兜底链路下为 nil
	Profile *TasteProfile

	// Labels 是用户级标签，可驱动 Pipeline 行为（如实验分桶）
	Labels map[string]utils.Label

	// Params 请求级上下文参数（如场景、设备信息）
	Params map[string]any
}

// PutLabel 写入用户级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取用户级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}
