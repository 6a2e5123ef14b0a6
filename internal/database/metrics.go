package database

import (
	"database/sql"
	"time"

	"github.com/blogpulse/backend/internal/metrics"
	"gorm.io/gorm"
)

const startTimeKey = "metrics:start_time"

// instrument registers GORM callbacks that time every statement and feed
// the Prometheus query histograms.
func instrument(db *gorm.DB) {
	before := func(tx *gorm.DB) {
		tx.InstanceSet(startTimeKey, time.Now())
	}
	after := func(queryType string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			v, ok := tx.InstanceGet(startTimeKey)
			if !ok {
				return
			}
			start, ok := v.(time.Time)
			if !ok {
				return
			}

			table := tx.Statement.Table
			if table == "" {
				table = "unknown"
			}
			status := "success"
			if tx.Error != nil {
				status = "error"
			}

			m := metrics.Get()
			m.DatabaseQueryDuration.WithLabelValues(queryType, table).Observe(time.Since(start).Seconds())
			m.DatabaseQueriesTotal.WithLabelValues(queryType, table, status).Inc()
		}
	}

	db.Callback().Create().Before("gorm:create").Register("metrics:before_create", before)
	db.Callback().Create().After("gorm:create").Register("metrics:after_create", after("create"))
	db.Callback().Query().Before("gorm:query").Register("metrics:before_query", before)
	db.Callback().Query().After("gorm:query").Register("metrics:after_query", after("query"))
	db.Callback().Update().Before("gorm:update").Register("metrics:before_update", before)
	db.Callback().Update().After("gorm:update").Register("metrics:after_update", after("update"))
	db.Callback().Delete().Before("gorm:delete").Register("metrics:before_delete", before)
	db.Callback().Delete().After("gorm:delete").Register("metrics:after_delete", after("delete"))
	db.Callback().Raw().Before("gorm:raw").Register("metrics:before_raw", before)
	db.Callback().Raw().After("gorm:raw").Register("metrics:after_raw", after("raw"))
}

// reportPoolStats feeds the open-connection gauge until the process exits
func reportPoolStats(sqlDB *sql.DB) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for range ticker.C {
		metrics.Get().DatabaseConnectionsOpen.
			WithLabelValues("postgres").
			Set(float64(sqlDB.Stats().OpenConnections))
	}
}
