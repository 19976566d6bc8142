package apperr

import (
	"errors"
	"fmt"
)

// ==================== 业务错误分类 ====================

// ValidationError 入参校验错误（负数成本、负数加价、数量小于1等）
// 必须在任何写库操作之前被拦截
type ValidationError struct {
	Field  string // 出错字段
	Reason string // 具体原因
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("参数校验失败: %s %s", e.Field, e.Reason)
}

// NewValidation 创建校验错误
func NewValidation(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation 判断是否为校验错误
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ==================== 套餐限额错误 ====================

// LimitExceededError 套餐限额超出错误
// 携带资源名、当前用量与限额，供前端提示升级套餐，永远可恢复
type LimitExceededError struct {
	Resource string // products / orders / team_members / ads
	Used     int64  // 当前用量
	Limit    int64  // 套餐限额
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("套餐限额已满: %s 已使用 %d/%d", e.Resource, e.Used, e.Limit)
}

// NewLimitExceeded 创建限额错误
func NewLimitExceeded(resource string, used, limit int64) *LimitExceededError {
	return &LimitExceededError{Resource: resource, Used: used, Limit: limit}
}

// IsLimitExceeded 判断是否为限额错误
func IsLimitExceeded(err error) bool {
	var le *LimitExceededError
	return errors.As(err, &le)
}

// ==================== 并发冲突错误 ====================

// ConcurrencyConflictError 读-改-写竞争冲突
// 调用方应有限次数重试，不允许静默忽略
type ConcurrencyConflictError struct {
	Entity string
	ID     int64
}

func (e *ConcurrencyConflictError) Error() string {
	return fmt.Sprintf("并发冲突: %s id=%d", e.Entity, e.ID)
}

// NewConflict 创建并发冲突错误
func NewConflict(entity string, id int64) *ConcurrencyConflictError {
	return &ConcurrencyConflictError{Entity: entity, ID: id}
}

// IsConflict 判断是否为并发冲突
func IsConflict(err error) bool {
	var ce *ConcurrencyConflictError
	return errors.As(err, &ce)
}

// ==================== 批量操作结果 ====================

// ItemError 批量操作中单项失败记录
type ItemError struct {
	ID  int64
	Err string
}

// BatchResult 批量操作结果汇总
// 单项失败不中断整批，始终同时上报成功与失败计数
type BatchResult struct {
	Succeeded int
	Failed    int
	Errors    []ItemError
}

// AddOK 记录一条成功
func (r *BatchResult) AddOK() {
	r.Succeeded++
}

// AddErr 记录一条失败
func (r *BatchResult) AddErr(id int64, err error) {
	r.Failed++
	r.Errors = append(r.Errors, ItemError{ID: id, Err: err.Error()})
}

// Total 批量总数
func (r *BatchResult) Total() int {
	return r.Succeeded + r.Failed
}
