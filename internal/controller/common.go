package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/apperr"
)

// ==================== 业务错误到 HTTP 的统一转译 ====================

// respondError 按错误分类映射状态码
// 校验 400 / 限额 403 / 并发冲突 409 / 记录缺失 404 / 其余 500
func respondError(ctx *gin.Context, err error) {
	switch {
	case apperr.IsValidation(err):
		ctx.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": err.Error(),
		})
	case apperr.IsLimitExceeded(err):
		var le *apperr.LimitExceededError
		errors.As(err, &le)
		ctx.JSON(http.StatusForbidden, gin.H{
			"code":    403,
			"message": err.Error(),
			"data": gin.H{
				"resource": le.Resource,
				"used":     le.Used,
				"limit":    le.Limit,
			},
		})
	case apperr.IsConflict(err):
		ctx.JSON(http.StatusConflict, gin.H{
			"code":    409,
			"message": err.Error(),
		})
	case errors.Is(err, gorm.ErrRecordNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{
			"code":    404,
			"message": "记录不存在",
		})
	default:
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"code":    500,
			"message": err.Error(),
		})
	}
}

// respondBindError 请求体解析失败
func respondBindError(ctx *gin.Context, err error) {
	ctx.JSON(http.StatusBadRequest, gin.H{
		"code":    400,
		"message": "参数错误: " + err.Error(),
	})
}

// parseIDParam 解析路径上的数字 ID
func parseIDParam(ctx *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id <= 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "无效的 " + name,
		})
		return 0, false
	}
	return id, true
}
