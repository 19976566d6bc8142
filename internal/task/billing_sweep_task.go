package task

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/repository"
)

// ==================== BillingSweepTask 计费周期巡检 ====================

// BillingSweepTask 将周期已结束的订阅置为过期
// Stripe 回调是主要的状态来源，巡检只兜底回调丢失的情况
type BillingSweepTask struct {
	subRepo repository.SubscriptionRepository
	cron    *cron.Cron
}

// NewBillingSweepTask 创建计费巡检任务
func NewBillingSweepTask(subRepo repository.SubscriptionRepository) *BillingSweepTask {
	return &BillingSweepTask{
		subRepo: subRepo,
		cron:    cron.New(cron.WithSeconds(), cron.WithLocation(time.UTC)),
	}
}

// Start 启动定时任务
func (t *BillingSweepTask) Start() {
	// 每小时巡检一次
	_, err := t.cron.AddFunc("0 0 * * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		t.sweep(ctx)
	})
	if err != nil {
		log.Printf("[BillingSweepTask] 定时任务启动失败: %v", err)
		return
	}

	t.cron.Start()
	log.Println("[BillingSweepTask] 已启动 (每小时)")
}

// Stop 停止任务
func (t *BillingSweepTask) Stop() {
	ctx := t.cron.Stop()
	<-ctx.Done()
	log.Println("[BillingSweepTask] 已停止")
}

func (t *BillingSweepTask) sweep(ctx context.Context) {
	n, err := t.subRepo.ExpireOverdue(ctx, time.Now().UTC())
	if err != nil {
		log.Printf("[BillingSweepTask] 订阅过期巡检失败: %v", err)
		return
	}
	if n > 0 {
		log.Printf("[BillingSweepTask] 订阅过期巡检完成, 置为过期 %d 条", n)
	}
}
