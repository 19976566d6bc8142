package pricing

import (
	"math"
	"testing"
)

// ==================== ApplyMarkup ====================

func TestApplyMarkup_Percentage(t *testing.T) {
	// $10.00 成本，20% 加价 → $12.00
	price, err := ApplyMarkup(1000, Percentage(20))
	if err != nil {
		t.Fatalf("计算售价失败: %v", err)
	}
	if price != 1200 {
		t.Errorf("price = %d, want 1200", price)
	}
}

func TestApplyMarkup_Fixed(t *testing.T) {
	// $10.00 成本，固定加价 $5.00 → $15.00
	price, err := ApplyMarkup(1000, Fixed(5))
	if err != nil {
		t.Fatalf("计算售价失败: %v", err)
	}
	if price != 1500 {
		t.Errorf("price = %d, want 1500", price)
	}
}

func TestApplyMarkup_RoundHalfUp(t *testing.T) {
	cases := []struct {
		name string
		cost int64
		rule Rule
		want int64
	}{
		// 333 * 1.15 = 382.95 → 383
		{"percentage round up", 333, Percentage(15), 383},
		// 100 * 1.125 = 112.5 → 113（half-up）
		{"percentage half up", 100, Percentage(12.5), 113},
		// 101 * 1.1 = 111.1 → 111
		{"percentage round down", 101, Percentage(10), 111},
		// fixed 金额 0.005 美元 → 1 分（half-up）
		{"fixed half up", 100, Fixed(0.005), 101},
		{"zero markup", 999, Percentage(0), 999},
	}

	for _, c := range cases {
		got, err := ApplyMarkup(c.cost, c.rule)
		if err != nil {
			t.Fatalf("%s: %v", c.name, err)
		}
		if got != c.want {
			t.Errorf("%s: got %d, want %d", c.name, got, c.want)
		}
	}
}

func TestApplyMarkup_NeverBelowCost(t *testing.T) {
	// value >= 0 时售价不得低于成本
	costs := []int64{0, 1, 99, 1000, 123456789}
	values := []float64{0, 0.1, 1, 33.3, 100, 250}

	for _, cost := range costs {
		for _, v := range values {
			for _, rule := range []Rule{Percentage(v), Fixed(v)} {
				price, err := ApplyMarkup(cost, rule)
				if err != nil {
					t.Fatalf("cost=%d rule=%+v: %v", cost, rule, err)
				}
				if price < cost {
					t.Errorf("cost=%d rule=%+v: price %d < cost", cost, rule, price)
				}
			}
		}
	}
}

func TestApplyMarkup_RejectNegative(t *testing.T) {
	if _, err := ApplyMarkup(-1, Percentage(10)); err == nil {
		t.Error("负成本应当被拒绝")
	}
	if _, err := ApplyMarkup(1000, Percentage(-5)); err == nil {
		t.Error("负数百分比加价应当被拒绝")
	}
	if _, err := ApplyMarkup(1000, Fixed(-1)); err == nil {
		t.Error("负数固定加价应当被拒绝")
	}
	if _, err := ApplyMarkup(1000, Rule{Type: "discount", Value: 10}); err == nil {
		t.Error("未知规则类型应当被拒绝")
	}
}

func TestApplyMarkup_Idempotent(t *testing.T) {
	// 同一规则对同一成本重复计算，结果必须一致
	rule := Percentage(37.5)
	first, err := ApplyMarkup(2799, rule)
	if err != nil {
		t.Fatalf("计算售价失败: %v", err)
	}
	second, err := ApplyMarkup(2799, rule)
	if err != nil {
		t.Fatalf("计算售价失败: %v", err)
	}
	if first != second {
		t.Errorf("重复计算结果不一致: %d vs %d", first, second)
	}
}

// ==================== Profit / Margin ====================

func TestProfit(t *testing.T) {
	if p := Profit(1000, 1200); p != 200 {
		t.Errorf("profit = %d, want 200", p)
	}
	// 售价低于成本时必须返回负利润，不允许静默截断为 0
	if p := Profit(1000, 800); p != -200 {
		t.Errorf("profit = %d, want -200", p)
	}
}

func TestMarginPercent(t *testing.T) {
	// $10 成本 $12 售价 → 16.67%
	m := MarginPercent(1000, 1200)
	if math.Abs(m-16.666666) > 0.001 {
		t.Errorf("margin = %f, want ~16.67", m)
	}

	// $10 成本 $15 售价 → 33.33%
	m = MarginPercent(1000, 1500)
	if math.Abs(m-33.333333) > 0.001 {
		t.Errorf("margin = %f, want ~33.33", m)
	}

	// 除零保护
	if m := MarginPercent(1000, 0); m != 0 {
		t.Errorf("售价为 0 时 margin = %f, want 0", m)
	}
	if m := MarginPercent(1000, -5); m != 0 {
		t.Errorf("售价为负时 margin = %f, want 0", m)
	}
}
