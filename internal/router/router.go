package router

import (
	"postly/internal/handlers"
	"postly/internal/middleware"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Login and API registration allow a burst of 5 then one attempt every 12s per IP.
const (
	authRate  = rate.Limit(1.0 / 12)
	authBurst = 5
	maxIPs    = 10000
)

func RegisterRoutes(r *gin.Engine, s *handlers.Services) {
	authHandler := handlers.NewAuthHandler(s)
	postHandler := handlers.NewPostHandler(s)
	likeHandler := handlers.NewLikeHandler(s)
	followHandler := handlers.NewFollowHandler(s)
	dashboardHandler := handlers.NewDashboardHandler(s)
	apiHandler := handlers.NewAPIHandler(s)
	wsHandler := handlers.NewWSHandler(s)

	limiter := middleware.NewRateLimiter(authRate, authBurst, maxIPs)

	// Public Routes
	r.GET("/", postHandler.Index)                   // most liked posts
	r.GET("/post/:id", postHandler.Show)            // post detail
	r.GET("/user/:id/posts", postHandler.UserPosts) // one author's posts
	r.GET("/search", postHandler.Search)            // title/content search
	r.GET("/ws", wsHandler.Subscribe)               // new-post push

	r.GET("/register", authHandler.ShowRegister)
	r.POST("/register", authHandler.Register)
	r.GET("/login", authHandler.ShowLogin)
	r.POST("/login", limiter.Middleware(), authHandler.Login)
	r.GET("/logout", authHandler.Logout)

	// JSON API
	api := r.Group("/api")
	{
		api.POST("/register", limiter.Middleware(), apiHandler.Register)
		api.POST("/post/new", middleware.APIAuthRequired(), apiHandler.CreatePost)
	}

	// Protected Routes
	authorized := r.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.GET("/post/new", postHandler.ShowCreate)
		authorized.POST("/post/new", postHandler.Create)
		authorized.GET("/post/edit/:id", postHandler.ShowEdit)
		authorized.POST("/post/edit/:id", postHandler.Update)
		authorized.POST("/post/delete/:id", postHandler.Delete)

		authorized.POST("/post/:id/like", likeHandler.Like)
		authorized.POST("/post/:id/unlike", likeHandler.Unlike)
		authorized.POST("/post/:id/dislike", likeHandler.Dislike)
		authorized.POST("/post/:id/undislike", likeHandler.Undislike)
		authorized.POST("/post/:id/toggle-like", likeHandler.ToggleLike)
		authorized.POST("/post/:id/toggle-dislike", likeHandler.ToggleDislike)

		authorized.POST("/user/:id/follow", followHandler.Toggle)
	}

	// Dashboard Routes
	dashboard := r.Group("/dashboard")
	dashboard.Use(middleware.AuthRequired())
	{
		dashboard.GET("", dashboardHandler.Index)
		dashboard.GET("/profile", dashboardHandler.Profile)
		dashboard.POST("/profile/image", dashboardHandler.UpdateImage)
		dashboard.POST("/profile/info", dashboardHandler.UpdateInfo)
		dashboard.POST("/profile/password", dashboardHandler.UpdatePassword)
		dashboard.POST("/profile/delete", dashboardHandler.DeleteAccount)
	}
}
