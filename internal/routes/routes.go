package routes

import (
	"github.com/CoconutOil2004/project-sdn-group302/internal/handler"
	"github.com/CoconutOil2004/project-sdn-group302/internal/middleware"
	"github.com/CoconutOil2004/project-sdn-group302/pkg/jwt"
	"github.com/gin-gonic/gin"
)

// Setup configures the messaging API routes.
// writeLimit guards the endpoints that append messages; pass nil to disable it.
func Setup(
	router *gin.Engine,
	conversationHandler *handler.ConversationHandler,
	jwtManager *jwt.Manager,
	writeLimit gin.HandlerFunc,
) {
	if writeLimit == nil {
		writeLimit = func(c *gin.Context) { c.Next() }
	}

	api := router.Group("/api/v1", middleware.JWTAuth(jwtManager))

	conversations := api.Group("/conversations")
	conversations.POST("", writeLimit, conversationHandler.CreateOrGet)
	conversations.GET("", conversationHandler.ListThreads)
	conversations.GET("/:key/messages", conversationHandler.ListMessages)
	conversations.POST("/:key/messages", writeLimit, conversationHandler.SendMessage)
	conversations.PUT("/:key/read", conversationHandler.MarkRead)
	conversations.PUT("/:key/pin", conversationHandler.Pin)
	conversations.PUT("/:key/unpin", conversationHandler.Unpin)

	// User directory for starting DIRECT conversations
	api.GET("/users", conversationHandler.ListUsers)
}
