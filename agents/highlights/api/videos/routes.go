package videos

import (
	"f1-highlights/agents/highlights/api/types"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers the highlight routes
func RegisterRoutes(router *gin.RouterGroup, deps *types.Dependencies) {
	// Batch triggers
	router.POST("/post", PostCatalog(deps))
	router.POST("/process", PostProcess(deps))
	router.POST("/events", PostEvents(deps))

	// Reads
	router.GET("/get", GetRecent(deps))
	router.GET("/videos", GetAll(deps))
	router.GET("/video/:videoId", GetByID(deps))
	router.GET("/details/:videoId", GetDetails(deps))
	router.GET("/events/:videoId", GetEvents(deps))
}
