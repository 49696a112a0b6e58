package router

import (
	"github.com/gin-gonic/gin"

	"basegraph.app/suggestbox/internal/http/handler"
)

func SuggestionRouter(rg *gin.RouterGroup, suggestions *handler.SuggestionHandler, comments *handler.CommentHandler, merges *handler.MergeHandler) {
	rg.GET("", suggestions.List)
	rg.POST("", suggestions.Create)
	rg.GET("/search", suggestions.Search)
	rg.GET("/:id", suggestions.Get)
	rg.PUT("/:id", suggestions.Update)
	rg.DELETE("/:id", suggestions.Delete)
	rg.POST("/:id/vote", suggestions.Vote)
	rg.PUT("/:id/lock", suggestions.Lock)
	rg.PUT("/:id/pin", suggestions.Pin)
	rg.POST("/:id/merge", merges.Merge)

	rg.POST("/:id/comments", comments.Add)
	rg.PUT("/:id/comments/:commentId", comments.Edit)
	rg.DELETE("/:id/comments/:commentId", comments.Delete)
	rg.POST("/:id/comments/:commentId/like", comments.Like)
}
