package database

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// ConnectPostgres opens a gorm connection, retrying a few times so services
// survive a database that is still starting up.
func ConnectPostgres(dsn string) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	maxRetries := 5
	retryInterval := 3 * time.Second

	for i := 0; i < maxRetries; i++ {
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err == nil {
			sqlDB, derr := db.DB()
			if derr == nil && sqlDB.Ping() == nil {
				log.Println("[OK] Connected to PostgreSQL")
				return db, nil
			}
			err = derr
		}
		log.Printf("[WARN] Postgres connect attempt %d/%d failed: %v", i+1, maxRetries, err)
		time.Sleep(retryInterval)
	}
	return nil, fmt.Errorf("failed to connect to postgres after %d attempts: %w", maxRetries, err)
}
