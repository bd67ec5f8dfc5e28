package router

import (
	"net/http"

	"campusboard/internal/handlers"
	"campusboard/internal/middleware"
	"campusboard/internal/services"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, svc *services.Services) {
	// Handlers
	authHandler := handlers.NewAuthHandler(svc.Auth)
	postHandler := handlers.NewPostHandler(svc.Posts)
	reactionHandler := handlers.NewReactionHandler(svc.Reactions)
	commentHandler := handlers.NewCommentHandler(svc.Comments)
	userHandler := handlers.NewUserHandler(svc.Users)
	schoolHandler := handlers.NewSchoolHandler(svc.Schools)
	nicknameHandler := handlers.NewNicknameHandler(svc.Nicknames)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	api.Use(middleware.LoadUser(svc.Auth))

	// 公共路由 (Public Routes)
	api.POST("/auth/register", authHandler.Register) // 注册
	api.POST("/auth/login", authHandler.Login)       // 登录

	api.GET("/posts", postHandler.List)                                      // 帖子列表
	api.GET("/posts/:id", postHandler.Detail)                                // 帖子详情（记录浏览）
	api.GET("/posts/:id/comments", commentHandler.List)                      // 顶层评论列表
	api.GET("/posts/:id/comments/:cid", commentHandler.Detail)               // 单条评论
	api.GET("/posts/:id/comments/:cid/replies", commentHandler.Replies)      // 评论的回复
	api.GET("/countries", schoolHandler.Countries)                           // 国家
	api.GET("/countries/:cid/schools", schoolHandler.Schools)                // 学校
	api.GET("/countries/:cid/schools/:sid/colleges", schoolHandler.Colleges) // 学院
	api.GET("/countries/:cid/schools/:sid/colleges/:colid/departments", schoolHandler.Departments)

	// 受保护路由 (Protected Routes)
	authorized := api.Group("")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.POST("/posts", postHandler.Create)       // 发帖
		authorized.PUT("/posts/:id", postHandler.Update)    // 编辑帖子
		authorized.DELETE("/posts/:id", postHandler.Delete) // 删除帖子

		authorized.POST("/posts/:id/like", reactionHandler.Like())           // 点赞
		authorized.POST("/posts/:id/dislike", reactionHandler.Dislike())     // 点踩
		authorized.POST("/posts/:id/unlike", reactionHandler.Unlike())       // 取消点赞
		authorized.POST("/posts/:id/undislike", reactionHandler.Undislike()) // 取消点踩

		authorized.POST("/posts/:id/comments", commentHandler.Create)        // 发表评论/回复
		authorized.PUT("/posts/:id/comments/:cid", commentHandler.Update)    // 编辑评论
		authorized.DELETE("/posts/:id/comments/:cid", commentHandler.Delete) // 删除评论

		authorized.GET("/users/me", userHandler.Me)                      // 当前用户
		authorized.DELETE("/users/me", userHandler.DeleteMe)             // 注销账号
		authorized.PUT("/users/me/password", userHandler.ChangePassword) // 修改密码
		authorized.GET("/users/me/posts", userHandler.MyPosts)           // 我的帖子
		authorized.GET("/users/me/comments", userHandler.MyComments)     // 我的评论
	}

	// 管理路由 (Admin Routes)
	admin := api.Group("/nicknames")
	admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
	{
		admin.GET("", nicknameHandler.List)                // 昵称词干列表
		admin.POST("", nicknameHandler.Add)                // 新增词干
		admin.DELETE("/:nickname", nicknameHandler.Delete) // 删除词干
	}
}
