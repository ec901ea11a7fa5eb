package router

import (
	"net/http"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "github.com/d60-Lab/chirp/docs"
	"github.com/d60-Lab/chirp/internal/api/handler"
	"github.com/d60-Lab/chirp/internal/api/middleware"
	"github.com/d60-Lab/chirp/pkg/auth"
)

// Options 路由依赖
type Options struct {
	ServiceName string
	Tokens      *auth.TokenManager
	// Throttle 为空时不做按 IP 节流
	Throttle *middleware.IPThrottle
	Swagger  bool
}

// Setup 注册中间件与全部路由
func Setup(h *handler.Handler, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(
		gin.Recovery(),
		sentrygin.New(sentrygin.Options{Repanic: true}),
		otelgin.Middleware(opts.ServiceName),
		middleware.RequestLogger(),
		middleware.ReportErrors(),
		gzip.Gzip(gzip.DefaultCompression),
	)

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	if opts.Swagger {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	v1 := r.Group("/api/v1")
	if opts.Throttle != nil {
		v1.Use(opts.Throttle.Middleware())
	}
	v1.Use(middleware.OptionalAuth(opts.Tokens))

	posts := v1.Group("/posts")
	{
		posts.GET("", h.ListPosts)
		posts.GET("/:id", h.GetPost)
		posts.POST("", middleware.RequireAuth(opts.Tokens), h.CreatePost)
	}
	v1.GET("/authors/:author_id/posts", h.ListAuthorPosts)
	v1.GET("/profiles/:username", h.GetProfile)

	if h.LocalAuthEnabled() {
		authGroup := v1.Group("/auth")
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
	}
	return r
}
