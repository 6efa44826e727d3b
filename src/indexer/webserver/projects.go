package webserver

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/finitestate/dao-indexer/src/indexer/types"
)

type Projects struct{ db *gorm.DB }

func NewProjects(db *gorm.DB) Projects { return Projects{db: db} }

func (p Projects) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit < 1 || limit > 200 {
		limit = 50
	}
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if offset < 0 {
		offset = 0
	}

	var projects []types.Project
	q := p.db.Order("prop_updated desc").Limit(limit).Offset(offset)
	if owner := c.Query("owner"); owner != "" {
		q = q.Where("owner = ?", owner)
	}
	if err := q.Find(&projects).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

func (p Projects) Get(c *gin.Context) {
	var project types.Project
	if err := p.db.First(&project, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"err": "project not found"})
		return
	}
	c.JSON(http.StatusOK, project)
}
