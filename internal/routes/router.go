// Package routesはroutingを行います。
package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"todo-tracker/internal/handlers"
	"todo-tracker/internal/views"
)

// Dependencies はルーターの組み立てに必要な部品です。
type Dependencies struct {
	TodoService handlers.TodoService
	DB          handlers.Pinger // nilならヘルスチェックは保存先を確認しない
	Logger      zerolog.Logger
	CORSOrigins []string
}

// SetupRouter はGinルーターをセットアップし、すべてのエンドポイントを登録します。
func SetupRouter(deps Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), MetricsMiddleware(), RequestLogger(deps.Logger))
	r.SetHTMLTemplate(views.Templates())

	todoHandler := handlers.NewTodoHandler(deps.TodoService, deps.DB, deps.Logger)
	pageHandler := handlers.NewPageHandler(deps.TodoService, deps.Logger)

	// CORS対策 (APIのみ)
	config := cors.DefaultConfig()
	config.AllowOrigins = deps.CORSOrigins
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	config.AllowCredentials = true
	config.MaxAge = 12 * time.Hour

	api := r.Group("/api")
	api.Use(cors.New(config))
	{
		// プリフライトはcorsミドルウェアが応答する
		api.OPTIONS("/*path", func(c *gin.Context) { c.Status(http.StatusNoContent) })
		api.GET("/health", todoHandler.HealthHandler)
		api.GET("/stats", todoHandler.GetStatsHandler)
		api.GET("/todos", todoHandler.GetTodosHandler)
		api.GET("/todos/:id", todoHandler.GetTodoByIDHandler)
		api.POST("/todos", todoHandler.CreateTodoHandler)
		api.PUT("/todos/:id", todoHandler.UpdateTodoHandler)
		api.PATCH("/todos/:id/toggle", todoHandler.ToggleTodoHandler)
		api.DELETE("/todos/:id", todoHandler.DeleteTodoHandler)
	}

	// 画面
	r.GET("/", pageHandler.Index)
	r.GET("/todos", pageHandler.Index)
	r.GET("/todos/create", pageHandler.CreateForm)
	r.POST("/todos/create", pageHandler.Create)
	r.GET("/todos/:id", pageHandler.Details)
	r.GET("/todos/:id/edit", pageHandler.EditForm)
	r.POST("/todos/:id/edit", pageHandler.Edit)
	r.GET("/todos/:id/delete", pageHandler.DeleteConfirm)
	r.POST("/todos/:id/delete", pageHandler.Delete)
	r.POST("/todos/:id/toggle", pageHandler.Toggle)
	r.GET("/dashboard", pageHandler.Dashboard)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	return r
}
