package filter

import (
	"context"

	"github.com/tunerec/tunerec/core"
	"github.com/tunerec/tunerec/pkg/dsl"
)

// Expr 是规则表达式过滤器：用 CEL 表达式描述剔除条件，命中即过滤。
// 典型用法是运营侧配置下发，例如剔除现场录音：
//
//	&filter.Expr{Expression: `item.features.liveness > 0.9`}
type Expr struct {
	// Expression CEL 表达式；为空时不过滤任何候选
	Expression string
}

func (f *Expr) Name() string {
	return "filter.expr"
}

func (f *Expr) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if f.Expression == "" || item == nil {
		return false, nil
	}

	hit, err := dsl.NewEval(item, rctx).Evaluate(f.Expression)
	if err != nil {
		// 表达式错误时放行，规则问题不应放大为整条链路失败
		return false, nil
	}
	return hit, nil
}
