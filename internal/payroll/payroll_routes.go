package payroll

import (
	"go-hrpay/internal/middleware"
	"go-hrpay/internal/rbac"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService rbac.Service,
	rdb ...*redis.Client,
) {
	var redisClient *redis.Client
	if len(rdb) > 0 {
		redisClient = rdb[0]
	}

	payrolls := r.Group("/payrolls")
	payrolls.Use(middleware.AuthMiddleware())
	{
		payrolls.GET("", middleware.RBACAuthorize(rbacService, "payroll", "read"), handler.GetByPeriod)
		if redisClient != nil {
			payrolls.POST(
				"/generate",
				middleware.Idempotency(redisClient),
				middleware.RBACAuthorize(rbacService, "payroll", "create"),
				handler.Generate,
			)
		} else {
			payrolls.POST("/generate", middleware.RBACAuthorize(rbacService, "payroll", "create"), handler.Generate)
		}
	}

	periods := r.Group("/payroll-periods")
	periods.Use(middleware.AuthMiddleware())
	{
		periods.GET("", middleware.RBACAuthorize(rbacService, "payroll", "read"), handler.GetAllPeriods)
		periods.GET("/:id/stats", middleware.RBACAuthorize(rbacService, "payroll", "read"), handler.PeriodStats)
	}
}
