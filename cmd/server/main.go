// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kartverket/frisk-backend/internal/config"
	"github.com/kartverket/frisk-backend/internal/handler"
	"github.com/kartverket/frisk-backend/internal/middleware"
	"github.com/kartverket/frisk-backend/internal/repository"
	"github.com/kartverket/frisk-backend/internal/service"
	"github.com/kartverket/frisk-backend/pkg/database"
	"github.com/kartverket/frisk-backend/pkg/log"
	"github.com/kartverket/frisk-backend/pkg/msgraph"
	"github.com/kartverket/frisk-backend/pkg/token"
)

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync()
	log.Info("日志记录器初始化成功")

	// 3. 初始化数据库和 Redis
	database.InitMySQL(cfg.Database.MySQL.DSN)
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	if err := database.Migrate(database.DB); err != nil {
		log.Fatal("数据库迁移失败", err)
	}

	// 4. 初始化 Repository
	functionRepo := repository.NewFunctionRepository(database.DB)
	metadataRepo := repository.NewMetadataRepository(database.DB)
	dependencyRepo := repository.NewDependencyRepository(database.DB)

	// 5. 初始化 Service (依赖注入)
	graphClient := msgraph.NewClient(cfg.Entra)
	cacheTTL := time.Duration(cfg.Entra.CacheTTLMinutes) * time.Minute
	microsoftService := service.NewMicrosoftService(graphClient, database.RDB, cacheTTL)
	functionService := service.NewFunctionService(functionRepo)
	metadataService := service.NewMetadataService(metadataRepo, functionRepo, microsoftService)
	authService := service.NewAuthService(cfg.Auth.SuperUserGroupID, metadataService, microsoftService)
	dataDumpService := service.NewDataDumpService(functionRepo, metadataRepo)
	dependencyService := service.NewDependencyService(dependencyRepo, functionRepo)

	verifier := token.NewVerifier(cfg.Auth.Secret, cfg.Auth.Issuer, cfg.Auth.Audience)

	// 6. 启动历史记录定期清理任务
	cleanupCtx, cancelCleanup := context.WithCancel(context.Background())
	defer cancelCleanup()
	go runHistoryCleanup(cleanupCtx, cfg.Cleanup, functionService)

	// 7. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery(), middleware.CORS(cfg.CORS.AllowedHosts))

	// 8. 注册路由
	functionHandler := handler.NewFunctionHandler(functionService, metadataService, authService)
	metadataHandler := handler.NewMetadataHandler(metadataService, authService)
	dependencyHandler := handler.NewDependencyHandler(dependencyService)
	microsoftHandler := handler.NewMicrosoftHandler(microsoftService)
	dataDumpHandler := handler.NewDataDumpHandler(dataDumpService)

	// 健康检查无需认证
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "Up and running!")
	})

	// 其余路由全部要求 Bearer JWT；写操作的授权检查在 handler 内完成
	api := r.Group("/", middleware.AuthMiddleware(verifier))
	{
		functions := api.Group("/functions")
		{
			functions.GET("", functionHandler.List)
			functions.POST("", functionHandler.Create)
			functions.GET("/:id", functionHandler.Get)
			functions.PUT("/:id", functionHandler.Update)
			functions.DELETE("/:id", functionHandler.Delete)
			functions.GET("/:id/children", functionHandler.Children)
			functions.GET("/:id/access", functionHandler.Access)

			functions.GET("/:id/metadata", metadataHandler.ListForFunction)
			functions.POST("/:id/metadata", metadataHandler.AddToFunction)
			functions.GET("/:id/metadata/access", metadataHandler.FunctionAccess)

			functions.GET("/:id/dependencies", dependencyHandler.List)
			functions.POST("/:id/dependencies", dependencyHandler.Create)
			functions.DELETE("/:id/dependencies/:dependencyId", dependencyHandler.Delete)
			functions.GET("/:id/dependents", dependencyHandler.Dependents)
		}

		metadata := api.Group("/metadata")
		{
			metadata.GET("", metadataHandler.Query)
			metadata.GET("/indicator", metadataHandler.Indicators)
			metadata.GET("/keys", metadataHandler.Keys)
			metadata.PATCH("/:id", metadataHandler.Update)
			metadata.DELETE("/:id", metadataHandler.Delete)
		}

		microsoft := api.Group("/microsoft")
		{
			microsoft.GET("/me/teams", microsoftHandler.MyTeams)
			microsoft.GET("/teams/:id", microsoftHandler.Team)
		}

		api.GET("/dump", dataDumpHandler.Dump)
	}

	// 9. 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP 服务监听失败", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("HTTP 服务器关闭失败", err)
	}
	log.Info("服务已优雅关闭")
}

// runHistoryCleanup 按配置的周期清理 functions_history 中过期的记录。
func runHistoryCleanup(ctx context.Context, cfg config.CleanupConfig, functions service.FunctionService) {
	if cfg.IntervalWeeks <= 0 || cfg.DeleteOlderThanDays <= 0 {
		log.Info("历史清理任务未配置，跳过")
		return
	}

	interval := time.Duration(cfg.IntervalWeeks) * 7 * 24 * time.Hour
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		deleted, err := functions.CleanupHistory(cfg.DeleteOlderThanDays)
		if err != nil {
			log.Error("历史记录清理失败", err)
		} else {
			log.Infof("历史记录清理完成，删除 %d 行", deleted)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
