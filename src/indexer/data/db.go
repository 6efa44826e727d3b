package data

import (
	"log"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/finitestate/dao-indexer/src/indexer/types"
)

func MustMySQL(dsn string) *gorm.DB {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("mysql: %v", err)
	}
	if err := Migrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	return db
}

// Migrate creates or updates the indexed entity tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&types.CrossChainAccount{},
		&types.Project{},
		&types.Proposal{},
		&types.Checkpoint{},
	)
}

func MustRedis(url string) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	return redis.NewClient(opt)
}
