package handler

import (
	"context"
	"net/http"
	"time"

	"nexogym/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health pings Postgres and Redis and reports how many receipt jobs sit in
// the dead-letter list. A nil Redis client reports "disabled" and still
// answers 200.
func Health(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "connected"
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "error"
		}

		redisStatus := "disabled"
		var deadLetters int64
		if rdb != nil {
			redisStatus = "connected"
			if rdb.Ping(ctx).Err() != nil {
				redisStatus = "error"
			} else {
				deadLetters, _ = worker.NewDeadLetters(rdb).Len(ctx, worker.QueueReceipts)
			}
		}

		status := http.StatusOK
		if dbStatus != "connected" || redisStatus == "error" {
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, gin.H{
			"ok":                   status == http.StatusOK,
			"db":                   dbStatus,
			"redis":                redisStatus,
			"receipt_dead_letters": deadLetters,
		})
	}
}
