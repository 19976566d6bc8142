package pricing

import (
	"math"

	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/apperr"
)

// ==================== 加价规则 ====================

// RuleType 加价规则类型
type RuleType string

const (
	RuleTypePercentage RuleType = "percentage" // 百分比加价
	RuleTypeFixed      RuleType = "fixed"      // 固定金额加价
)

// Rule 加价规则
// Value 语义随类型变化：percentage 时为百分数（20 = 20%），fixed 时为美元金额
type Rule struct {
	Type  RuleType `json:"type"`
	Value float64  `json:"value"`
}

// Percentage 构造百分比规则
func Percentage(value float64) Rule {
	return Rule{Type: RuleTypePercentage, Value: value}
}

// Fixed 构造固定金额规则
func Fixed(value float64) Rule {
	return Rule{Type: RuleTypeFixed, Value: value}
}

// Validate 校验规则合法性
// 负数加价会导致售价低于成本，必须拒绝
func (r Rule) Validate() error {
	if r.Type != RuleTypePercentage && r.Type != RuleTypeFixed {
		return apperr.NewValidation("rule.type", "未知的加价类型: "+string(r.Type))
	}
	if r.Value < 0 {
		return apperr.NewValidation("rule.value", "加价值不能为负数")
	}
	return nil
}

// ==================== 定价计算 ====================

// roundHalfUpCents 四舍五入到分
// 整个计算只在最后舍入一次，中间值不舍入
func roundHalfUpCents(v float64) int64 {
	return int64(math.Floor(v + 0.5))
}

// ApplyMarkup 按规则从供应商成本计算商户售价（单位：分）
// 保证 value >= 0 时售价 >= 成本
func ApplyMarkup(costCents int64, r Rule) (int64, error) {
	if costCents < 0 {
		return 0, apperr.NewValidation("cost", "成本不能为负数")
	}
	if err := r.Validate(); err != nil {
		return 0, err
	}

	switch r.Type {
	case RuleTypePercentage:
		return roundHalfUpCents(float64(costCents) * (1 + r.Value/100)), nil
	default: // RuleTypeFixed
		return costCents + roundHalfUpCents(r.Value*100), nil
	}
}

// Profit 计算利润（售价 - 成本）
// 不做零下限截断：售价低于成本时返回负利润，作为上游配置错误的信号
func Profit(costCents, priceCents int64) int64 {
	return priceCents - costCents
}

// MarginPercent 计算毛利率（利润 / 售价 × 100）
// 售价 <= 0 时定义为 0，避免除零
func MarginPercent(costCents, priceCents int64) float64 {
	if priceCents <= 0 {
		return 0
	}
	return float64(priceCents-costCents) / float64(priceCents) * 100
}
