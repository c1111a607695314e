package core

import "errors"

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 排序核心本身不返回错误（输入一律做截断）
//   - 错误只出现在边界：存储、配置、Pipeline 构建、HTTP 解码
//   - 提供错误代码（Code）和消息（Message），支持 IsXXX 检查
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "INVALID_INPUT"）
	Message string // 错误消息
	Module  string // 模块名称（如 "store", "pipeline", "server"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// GetDomainError 从错误链中取出 DomainError，不存在则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// 错误代码常量
const (
	ErrorCodeNotFound      = "NOT_FOUND"      // 资源不存在
	ErrorCodeNotSupported  = "NOT_SUPPORTED"  // 操作不支持
	ErrorCodeUnavailable   = "UNAVAILABLE"    // 服务不可用
	ErrorCodeInvalidInput  = "INVALID_INPUT"  // 输入无效
	ErrorCodeInternalError = "INTERNAL_ERROR" // 内部错误
)

// 模块名称常量
const (
	ModuleStore    = "store"
	ModuleRank     = "rank"
	ModuleExposure = "exposure"
	ModulePipeline = "pipeline"
	ModuleServer   = "server"
)

// IsInvalidInput 检查错误是否为 INVALID_INPUT
func IsInvalidInput(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeInvalidInput
	}
	return false
}
