package webserver

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func New(db *gorm.DB) *gin.Engine {
	g := gin.New()
	g.Use(gin.Logger(), gin.Recovery())
	attachRoutes(g, db)
	return g
}

func attachRoutes(r *gin.Engine, db *gorm.DB) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type"},
		ExposeHeaders: []string{"Content-Length"},
	}))

	projH := NewProjects(db)
	propH := NewProposals(db)
	acctH := NewAccounts(db)

	v1 := r.Group("/v1")
	{
		v1.GET("/projects", projH.List)
		v1.GET("/projects/:id", projH.Get)
		v1.GET("/projects/:id/proposals", propH.ListByProject)
		v1.GET("/proposals/:id", propH.Get)
		v1.GET("/accounts/:addr", acctH.Get)
	}

	r.GET("/healthz", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err != nil || sqlDB.Ping() != nil {
			c.JSON(503, gin.H{"status": "degraded"})
			return
		}
		c.JSON(200, gin.H{"status": "ok"})
	})
}
