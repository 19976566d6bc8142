package model

import "testing"

func TestLimit_Allows(t *testing.T) {
	l := LimitOf(25)
	if !l.Allows(24) {
		t.Error("24/25 应当允许")
	}
	if l.Allows(25) {
		t.Error("25/25 应当拒绝")
	}
	if l.Allows(26) {
		t.Error("26/25 应当拒绝")
	}
	if !LimitOf(1).Allows(0) {
		t.Error("0/1 应当允许")
	}
	if LimitOf(0).Allows(0) {
		t.Error("限额 0 应当一律拒绝")
	}
}

func TestLimit_UnlimitedSentinel(t *testing.T) {
	// -1 哨兵值对任意非负用量均允许
	l := LimitFromSentinel(-1)
	if !l.IsUnlimited() {
		t.Fatal("-1 应当解析为无限")
	}
	for _, used := range []int64{0, 1, 100, 1 << 40} {
		if !l.Allows(used) {
			t.Errorf("无限限额应当允许任意用量 used=%d", used)
		}
	}
	if l.Sentinel() != UnlimitedSentinel {
		t.Errorf("sentinel = %d, want -1", l.Sentinel())
	}
}

func TestLimit_SentinelRoundTrip(t *testing.T) {
	for _, n := range []int64{-1, 0, 1, 25, 9999} {
		if got := LimitFromSentinel(n).Sentinel(); got != n {
			t.Errorf("sentinel 往返不一致: %d → %d", n, got)
		}
	}
}

func TestSubscription_EffectiveLimit(t *testing.T) {
	plan := LimitOf(25)

	s := &Subscription{Status: SubscriptionStatusActive}
	if s.EffectiveLimit(plan).IsUnlimited() {
		t.Error("普通订阅应当继承套餐限额")
	}

	// 终身免费覆盖名义套餐
	s.Status = SubscriptionStatusFreeForLife
	if !s.EffectiveLimit(plan).IsUnlimited() {
		t.Error("终身免费应当无视套餐限额")
	}
}
