package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/middleware"
	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/model"
	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/repository"
	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ==================== 测试模型 ====================

// 套餐表在生产库带 text[] 列，sqlite 下用精简结构建表
type testPlanRow struct {
	ID              int64 `gorm:"primaryKey"`
	Name            string
	ProductLimit    int64
	OrderLimit      int64
	TeamMemberLimit int64
	AdsPerDay       int64
	IsActive        bool
}

func (testPlanRow) TableName() string { return "plans" }

type stubCounter struct{ n int64 }

func (s *stubCounter) CountByMerchant(ctx context.Context, merchantID int64) (int64, error) {
	return s.n, nil
}

// ==================== 测试环境 ====================

type ctlSuite struct {
	db     *gorm.DB
	router *gin.Engine
	token  string
}

func newCtlSuite(t *testing.T) *ctlSuite {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}

	db.AutoMigrate(&testPlanRow{}, &model.Subscription{}, &model.TeamMember{})

	db.Create(&testPlanRow{
		ID:              1,
		Name:            "starter",
		ProductLimit:    25,
		OrderLimit:      100,
		TeamMemberLimit: 2,
		AdsPerDay:       2,
		IsActive:        true,
	})
	db.Create(&model.Subscription{
		MerchantID: 7,
		PlanID:     1,
		Status:     model.SubscriptionStatusTrial,
		AdsDay:     time.Now().UTC().Format("2006-01-02"),
	})

	uow := repository.NewUnitOfWork(db)
	subSvc, err := service.NewSubscriptionService(
		uow,
		repository.NewPlanRepository(db),
		&stubCounter{n: 3}, &stubCounter{n: 10}, uow.Members,
		&service.SubscriptionConfig{FreeForLifeThresholdCents: 100_000_000},
	)
	if err != nil {
		t.Fatalf("创建订阅服务失败: %v", err)
	}

	ctl := NewSubscriptionController(subSvc)

	r := gin.New()
	authed := r.Group("/api")
	authed.Use(middleware.JWTAuth())
	{
		authed.GET("/subscription", ctl.GetSubscription)
		authed.GET("/subscription/usage", ctl.GetUsage)
		authed.GET("/team/members", ctl.ListTeamMembers)
		authed.POST("/team/members", ctl.InviteTeamMember)
	}

	token, err := middleware.GenerateAccessToken(7, "shop@example.com", model.RoleMerchant)
	if err != nil {
		t.Fatalf("生成测试 token 失败: %v", err)
	}

	return &ctlSuite{db: db, router: r, token: token}
}

func (s *ctlSuite) do(method, path string, body interface{}, withToken bool) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if withToken {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// ==================== 鉴权 ====================

func TestSubscriptionAPI_RequiresToken(t *testing.T) {
	suite := newCtlSuite(t)

	w := suite.do(http.MethodGet, "/api/subscription", nil, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "无 token 应返回 401")
}

// ==================== 订阅与用量 ====================

func TestSubscriptionAPI_GetUsage(t *testing.T) {
	suite := newCtlSuite(t)

	w := suite.do(http.MethodGet, "/api/subscription/usage", nil, true)
	if w.Code != http.StatusOK {
		t.Fatalf("用量查询失败: %d, %s", w.Code, w.Body.String())
	}

	var resp struct {
		Code int `json:"code"`
		Data struct {
			Status   string `json:"status"`
			PlanName string `json:"plan_name"`
			Products struct {
				Used  int64 `json:"used"`
				Limit int64 `json:"limit"`
			} `json:"products"`
		} `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)

	assert.Equal(t, model.SubscriptionStatusTrial, resp.Data.Status)
	assert.Equal(t, int64(3), resp.Data.Products.Used)
	assert.Equal(t, int64(25), resp.Data.Products.Limit)
}

func TestSubscriptionAPI_GetSubscription_NotFound(t *testing.T) {
	suite := newCtlSuite(t)

	// token 对应的商户没有订阅记录
	token, _ := middleware.GenerateAccessToken(999, "ghost@example.com", model.RoleMerchant)
	req := httptest.NewRequest(http.MethodGet, "/api/subscription", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code, "订阅不存在应返回 404")
}

// ==================== 团队成员限额 ====================

func TestSubscriptionAPI_InviteTeamMember_LimitExceeded(t *testing.T) {
	suite := newCtlSuite(t)

	// 套餐上限 2，先邀请满
	for _, email := range []string{"a@example.com", "b@example.com"} {
		w := suite.do(http.MethodPost, "/api/team/members", gin.H{"email": email}, true)
		if w.Code != http.StatusOK {
			t.Fatalf("邀请 %s 失败: %d, %s", email, w.Code, w.Body.String())
		}
	}

	// 第三个触发限额
	w := suite.do(http.MethodPost, "/api/team/members", gin.H{"email": "c@example.com"}, true)
	if w.Code != http.StatusForbidden {
		t.Fatalf("超限邀请应返回 403, got %d, %s", w.Code, w.Body.String())
	}

	var resp struct {
		Data struct {
			Resource string `json:"resource"`
			Used     int64  `json:"used"`
			Limit    int64  `json:"limit"`
		} `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	assert.Equal(t, "team_members", resp.Data.Resource)
	assert.Equal(t, int64(2), resp.Data.Limit)

	// 拒绝时不产生成员记录
	var count int64
	suite.db.Model(&model.TeamMember{}).Where("merchant_id = ?", 7).Count(&count)
	assert.Equal(t, int64(2), count, "成员数应保持 2")
}

func TestSubscriptionAPI_InviteTeamMember_BadRequest(t *testing.T) {
	suite := newCtlSuite(t)

	w := suite.do(http.MethodPost, "/api/team/members", gin.H{"email": "not-an-email"}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code, "非法邮箱应返回 400")
}
