package webserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/finitestate/dao-indexer/src/indexer/types"
)

type Accounts struct{ db *gorm.DB }

func NewAccounts(db *gorm.DB) Accounts { return Accounts{db: db} }

func (a Accounts) Get(c *gin.Context) {
	addr := c.Param("addr")

	var account types.CrossChainAccount
	if err := a.db.First(&account, "address = ?", addr).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"err": "account not found"})
		return
	}

	var owned []types.Project
	a.db.Where("owner = ?", addr).Find(&owned)

	var authored []types.Proposal
	a.db.Where("author = ?", addr).Order("created desc").Limit(50).Find(&authored)

	c.JSON(http.StatusOK, gin.H{
		"account":   account,
		"projects":  owned,
		"proposals": authored,
	})
}
