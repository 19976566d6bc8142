package model

// ==================== Limit 套餐限额 ====================

// UnlimitedSentinel 持久层的"无限"哨兵值
// 只在数据库边界做转换，领域层一律使用 Limit 类型
const UnlimitedSentinel int64 = -1

// Limit 套餐限额，零值为"限额 0"
type Limit struct {
	unlimited bool
	max       int64
}

// Unlimited 构造无限限额
func Unlimited() Limit {
	return Limit{unlimited: true}
}

// LimitOf 构造有限限额
func LimitOf(n int64) Limit {
	if n < 0 {
		return Unlimited()
	}
	return Limit{max: n}
}

// LimitFromSentinel 从持久层哨兵值还原限额（-1 = 无限）
func LimitFromSentinel(n int64) Limit {
	if n == UnlimitedSentinel {
		return Unlimited()
	}
	return LimitOf(n)
}

// Sentinel 转回持久层哨兵值
func (l Limit) Sentinel() int64 {
	if l.unlimited {
		return UnlimitedSentinel
	}
	return l.max
}

// IsUnlimited 是否无限
func (l Limit) IsUnlimited() bool {
	return l.unlimited
}

// Max 限额上限（无限时无意义，返回 -1）
func (l Limit) Max() int64 {
	if l.unlimited {
		return UnlimitedSentinel
	}
	return l.max
}

// Allows 当前用量下是否还允许新增一个
func (l Limit) Allows(used int64) bool {
	if l.unlimited {
		return true
	}
	return used < l.max
}
