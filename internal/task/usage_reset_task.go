package task

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/repository"
)

// ==================== UsageResetTask 用量重置任务 ====================

// UsageResetTask 每日广告计数批量重置
// 与在线路径的惰性日期翻转互为兜底，任一先执行另一方都是空操作
type UsageResetTask struct {
	subRepo repository.SubscriptionRepository
	cron    *cron.Cron
}

// NewUsageResetTask 创建用量重置任务
func NewUsageResetTask(subRepo repository.SubscriptionRepository) *UsageResetTask {
	return &UsageResetTask{
		subRepo: subRepo,
		cron:    cron.New(cron.WithSeconds(), cron.WithLocation(time.UTC)),
	}
}

// Start 启动定时任务
func (t *UsageResetTask) Start() {
	// 每日 UTC 零点整点重置
	_, err := t.cron.AddFunc("0 0 0 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		t.resetDailyCounters(ctx)
	})
	if err != nil {
		log.Printf("[UsageResetTask] 定时任务启动失败: %v", err)
		return
	}

	t.cron.Start()
	log.Println("[UsageResetTask] 已启动 (每日 UTC 零点)")
}

// Stop 停止任务
func (t *UsageResetTask) Stop() {
	ctx := t.cron.Stop()
	<-ctx.Done()
	log.Println("[UsageResetTask] 已停止")
}

func (t *UsageResetTask) resetDailyCounters(ctx context.Context) {
	today := time.Now().UTC().Format("2006-01-02")
	n, err := t.subRepo.ResetDailyAdCounters(ctx, today)
	if err != nil {
		log.Printf("[UsageResetTask] 广告计数重置失败: %v", err)
		return
	}
	log.Printf("[UsageResetTask] 广告计数重置完成, 涉及订阅 %d 条", n)
}
