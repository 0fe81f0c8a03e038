package app

import (
	"petopia_backend/docs"
	"petopia_backend/internal/config"
	"petopia_backend/internal/middleware"
	"petopia_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 公共路由（无需登录）
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
		public.GET("/coupons/types", c.coupon.ListTypes)
	}

	// 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		authGroup.GET("/profile", c.auth.GetProfile)

		// 宠物养成
		pets := authGroup.Group("/pets")
		{
			pets.POST("", c.pet.AdoptPet)
			pets.GET("/mine", c.pet.GetMyPet)
			pets.POST("/:id/feed", c.pet.FeedPet)
			pets.POST("/:id/play", c.pet.PlayWithPet)
			pets.POST("/:id/clean", c.pet.CleanPet)
			pets.POST("/:id/rest", c.pet.RestPet)
			pets.GET("/:id/readiness", c.pet.CheckAdventureReadiness)
			pets.POST("/:id/avatar", c.pet.UploadAvatar)
		}

		// 冒险生命周期
		game := authGroup.Group("/game")
		{
			game.POST("/attempts", c.game.StartAttempt)
			game.GET("/attempts", c.game.ListAttempts)
			game.POST("/attempts/:id/end", c.game.EndAttempt)
			game.POST("/attempts/:id/abort", c.game.AbortAttempt)
			game.GET("/quota", c.game.GetQuota)
			game.GET("/next-level", c.game.GetNextLevel)
		}

		// 积分与优惠券
		authGroup.GET("/points/summary", c.points.GetSummary)
		authGroup.GET("/points/ledger", c.points.GetLedger)
		authGroup.GET("/coupons", c.coupon.ListMine)
		authGroup.POST("/coupons/:id/use", c.coupon.UseCoupon)

		// 签到
		authGroup.POST("/checkin", c.checkin.Checkin)
		authGroup.GET("/checkin/status", c.checkin.GetStatus)

		// 玩法规则配置
		authGroup.GET("/settings/game-rules", c.setting.GetGameRules)
		authGroup.PUT("/settings/game-rules", c.setting.UpdateGameRules)
	}
}
