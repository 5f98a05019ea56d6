package router

import (
	"github.com/blues/cds/internal/handler"
	"github.com/blues/cds/internal/ledger"
	"github.com/blues/cds/internal/reward"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

func Setup(l *ledger.Ledger, m *reward.Minter) *gin.Engine {
	r := gin.New()

	// 中间件
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())
	r.Use(callerMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "charity-donation-service",
			"paused":  l.Paused(),
		})
	})

	// API版本组
	v1 := r.Group("/api/v1")
	{
		// 活动相关路由
		campaignHandler := handler.NewCampaignHandler(l)
		campaigns := v1.Group("/campaigns")
		{
			campaigns.POST("", campaignHandler.CreateCampaign)
			campaigns.GET("", campaignHandler.GetCampaigns)
			campaigns.GET("/active", campaignHandler.GetActiveCampaigns)
			campaigns.GET("/:id", campaignHandler.GetCampaign)
			campaigns.GET("/:id/stats", campaignHandler.GetCampaignStats)
			campaigns.POST("/:id/donate", campaignHandler.Donate)
			campaigns.POST("/:id/stop", campaignHandler.StopCampaign)
			campaigns.POST("/:id/withdraw", campaignHandler.WithdrawFunds)
		}
		v1.GET("/donors/:address/history", campaignHandler.GetDonorHistory)

		// 奖励凭证相关路由
		rewardHandler := handler.NewRewardHandler(m)
		rewards := v1.Group("/rewards")
		{
			rewards.GET("/:id", rewardHandler.GetReward)
			rewards.GET("/:id/royalty", rewardHandler.GetRoyalty)
		}
		v1.GET("/owners/:address/rewards", rewardHandler.GetTokensByOwner)

		// 平台管理路由
		adminHandler := handler.NewAdminHandler(l, m)
		admin := v1.Group("/admin")
		{
			admin.POST("/pause", adminHandler.Pause)
			admin.POST("/unpause", adminHandler.Unpause)
			admin.POST("/emergency-withdraw", adminHandler.EmergencyWithdraw)
			admin.POST("/platform-fee", adminHandler.SetPlatformFee)
			admin.POST("/royalty", adminHandler.UpdateRoyalty)
			admin.GET("/stats", adminHandler.GetPlatformStats)
		}
	}

	return r
}

// CORS中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, X-Caller-Address")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// 调用者身份中间件，从请求头解析地址写入上下文。
// 身份的真实性校验（签名、会话）由外部协作方负责。
func callerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(handler.CallerHeader)
		if raw != "" {
			if !common.IsHexAddress(raw) {
				c.AbortWithStatusJSON(400, gin.H{
					"success": false,
					"message": "无效的调用者地址",
				})
				return
			}
			c.Set(handler.CallerKey, common.HexToAddress(raw))
		}
		c.Next()
	}
}
