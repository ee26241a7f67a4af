package api

import "github.com/gin-gonic/gin"

// NewRouter builds the gin engine with all routes attached.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", h.Healthz)

	v1 := r.Group("/api/v1")
	{
		patients := v1.Group("/patients/:id")
		{
			patients.POST("/events", h.CreateEvent)
			patients.GET("/events", h.ListEvents)
			patients.GET("/patterns", h.Patterns)
			patients.GET("/correlations", h.Correlations)
			patients.POST("/safety-check", h.SafetyCheck)
			patients.GET("/similar", h.SimilarPatients)
			patients.GET("/insights", h.Insights)
			patients.GET("/timeline/stats", h.TimelineStats)
		}

		v1.GET("/interactions/details", h.InteractionDetails)
		v1.POST("/search/symptoms", h.SearchSymptoms)

		events := v1.Group("/events")
		{
			events.PUT("/:id", h.UpdateEvent)
			events.DELETE("/:id", h.DeleteEvent)
			events.POST("/bulk-delete", h.BulkDeleteEvents)
		}
	}

	return r
}
