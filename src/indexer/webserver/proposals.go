package webserver

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/finitestate/dao-indexer/src/indexer/types"
)

type Proposals struct{ db *gorm.DB }

func NewProposals(db *gorm.DB) Proposals { return Proposals{db: db} }

func (p Proposals) ListByProject(c *gin.Context) {
	// Confirm the parent exists so an empty list and a bad id are
	// distinguishable.
	var project types.Project
	if err := p.db.Select("id").First(&project, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"err": "project not found"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit < 1 || limit > 200 {
		limit = 50
	}
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if offset < 0 {
		offset = 0
	}

	q := p.db.Where("project_id = ?", project.ID).Order("proposal_id desc").Limit(limit).Offset(offset)
	if c.Query("active") == "true" {
		q = q.Where("finalized = ? AND blacklisted = ?", false, false)
	}

	var proposals []types.Proposal
	if err := q.Find(&proposals).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"proposals": proposals})
}

func (p Proposals) Get(c *gin.Context) {
	var proposal types.Proposal
	if err := p.db.First(&proposal, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"err": "proposal not found"})
		return
	}
	c.JSON(http.StatusOK, proposal)
}
