package repository

import (
	"context"

	"gorm.io/gorm"
)

// ==================== 事务支持 ====================

// UnitOfWork 跨仓库事务单元
// 检查后写入（限额检查+落库、订单结算+销售额上报）必须共享同一事务，
// 并发串行化由订阅行/订单行上的写锁承载
type UnitOfWork struct {
	db            *gorm.DB
	Orders        OrderRepository
	Subscriptions SubscriptionRepository
	Products      ProductRepository
	Members       MerchantRepository
}

// NewUnitOfWork 创建工作单元
func NewUnitOfWork(db *gorm.DB) *UnitOfWork {
	return &UnitOfWork{
		db:            db,
		Orders:        NewOrderRepository(db),
		Subscriptions: NewSubscriptionRepository(db),
		Products:      NewProductRepository(db),
		Members:       NewMerchantRepository(db),
	}
}

// Transaction 执行事务，回调内的仓库均绑定到同一事务连接
func (u *UnitOfWork) Transaction(ctx context.Context, fn func(tx *UnitOfWork) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&UnitOfWork{
			db:            tx,
			Orders:        NewOrderRepository(tx),
			Subscriptions: NewSubscriptionRepository(tx),
			Products:      NewProductRepository(tx),
			Members:       NewMerchantRepository(tx),
		})
	})
}
