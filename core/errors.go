package core

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 领域层的预期结果（如评分不足）与非预期失败共用此类型，由错误代码区分
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX），Engine 据此选择降级分支
type DomainError struct {
	Code    string // 错误代码（如 "INSUFFICIENT_SIGNAL", "NOT_FOUND"）
	Message string // 错误消息
	Module  string // 模块名称（如 "store", "profile", "describe"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// GetDomainError 获取 DomainError，如果不是则返回 nil。
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	if domainErr, ok := err.(*DomainError); ok {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误。
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// 错误代码常量
const (
	ErrorCodeNotFound           = "NOT_FOUND"           // 资源不存在
	ErrorCodeNotSupported       = "NOT_SUPPORTED"       // 操作不支持
	ErrorCodeUnavailable        = "UNAVAILABLE"         // 外部依赖不可用
	ErrorCodeInternalError      = "INTERNAL_ERROR"      // 内部错误
	ErrorCodeInsufficientSignal = "INSUFFICIENT_SIGNAL" // 合格评分不足，无法个性化（预期结果）
	ErrorCodeNoCandidates       = "NO_CANDIDATES"       // 用户已评完全部歌曲（预期结果）
)

// 模块名称常量
const (
	ModuleStore    = "store"    // 存储模块
	ModuleProfile  = "profile"  // 口味画像模块
	ModuleDescribe = "describe" // 口味描述模块
	ModuleEngine   = "engine"   // 编排模块
)

// 预期结果哨兵：Engine 用它们路由到热门兜底分支，而非当作失败处理。
var (
	ErrInsufficientSignal = NewDomainError(ModuleProfile, ErrorCodeInsufficientSignal, "profile: not enough qualifying ratings to personalize")
	ErrNoCandidates       = NewDomainError(ModuleEngine, ErrorCodeNoCandidates, "engine: user has rated every available song")
)

func hasCode(err error, code string) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == code
	}
	return false
}

// IsInsufficientSignal 检查错误是否为"评分不足"的预期结果。
func IsInsufficientSignal(err error) bool { return hasCode(err, ErrorCodeInsufficientSignal) }

// IsNoCandidates 检查错误是否为"已评完全部歌曲"的预期结果。
func IsNoCandidates(err error) bool { return hasCode(err, ErrorCodeNoCandidates) }

// IsNotFound 检查错误是否为 NOT_FOUND。
func IsNotFound(err error) bool { return hasCode(err, ErrorCodeNotFound) }

// IsUnavailable 检查错误是否为外部依赖不可用。
func IsUnavailable(err error) bool { return hasCode(err, ErrorCodeUnavailable) }
