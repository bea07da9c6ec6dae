package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ilker/ledger-server/internal/middleware"
)

// Routes bundles everything the HTTP surface needs.
type Routes struct {
	Backup       *BackupHandler
	Confirmation *ConfirmationHandler
	Ledger       *LedgerHandler
	Confirm      *middleware.ConfirmAuth
	ImportLimit  *middleware.RateLimiter
}

func NewRouter(rt Routes) *gin.Engine {
	r := gin.Default()

	// CORS middleware
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, "+middleware.ConfirmationHeader)
		c.Header("Access-Control-Expose-Headers", "Content-Disposition")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	destructive := rt.Confirm.RequireConfirmation(middleware.ScopeRestore)

	v1 := r.Group("/api/v1")
	{
		b := v1.Group("/backup")
		{
			b.GET("/export", rt.Backup.Export)
			b.POST("/confirmation", rt.Confirmation.Issue)

			imports := []gin.HandlerFunc{destructive}
			if rt.ImportLimit != nil {
				imports = append([]gin.HandlerFunc{rt.ImportLimit.Middleware()}, imports...)
			}
			b.POST("/import", append(imports, rt.Backup.Import)...)

			b.GET("/import/history", rt.Backup.History)
			b.GET("/import/history/all", rt.Backup.HistoryAll)
			b.DELETE("/import/history", destructive, rt.Backup.Cleanup)
			b.GET("/import/:requestId", rt.Backup.Status)
		}

		v1.GET("/ledger/summary", rt.Ledger.Summary)
	}

	return r
}
