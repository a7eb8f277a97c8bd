package postgres

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const queryStartKey = "query_monitor:start"

// QueryMonitor tracks query counts and logs slow queries
type QueryMonitor struct {
	logger    *zap.Logger
	threshold time.Duration
	mu        sync.RWMutex
	stats     QueryStats
}

// QueryStats holds aggregated query statistics
type QueryStats struct {
	TotalQueries     int64         `json:"total_queries"`
	SlowQueries      int64         `json:"slow_queries"`
	FailedQueries    int64         `json:"failed_queries"`
	AverageQueryTime time.Duration `json:"average_query_time"`
	TotalQueryTime   time.Duration `json:"total_query_time"`
}

// NewQueryMonitor creates a new query monitor
func NewQueryMonitor(threshold time.Duration, logger *zap.Logger) *QueryMonitor {
	if threshold <= 0 {
		threshold = 100 * time.Millisecond
	}
	return &QueryMonitor{logger: logger, threshold: threshold}
}

// Install registers the before/after query callbacks on db
func (qm *QueryMonitor) Install(db *gorm.DB) error {
	if err := db.Callback().Query().Before("gorm:query").Register("monitor:before", qm.BeforeQuery); err != nil {
		return err
	}
	return db.Callback().Query().After("gorm:query").Register("monitor:after", qm.AfterQuery)
}

// BeforeQuery is called before query execution
func (qm *QueryMonitor) BeforeQuery(db *gorm.DB) {
	db.InstanceSet(queryStartKey, time.Now())
}

// AfterQuery is called after query execution
func (qm *QueryMonitor) AfterQuery(db *gorm.DB) {
	v, ok := db.InstanceGet(queryStartKey)
	if !ok {
		return
	}
	start, ok := v.(time.Time)
	if !ok {
		return
	}
	sql := ""
	if db.Statement != nil {
		sql = db.Statement.SQL.String()
	}
	qm.recordQuery(sql, time.Since(start), db.Error)
}

func (qm *QueryMonitor) recordQuery(sql string, duration time.Duration, err error) {
	qm.mu.Lock()
	qm.stats.TotalQueries++
	qm.stats.TotalQueryTime += duration
	qm.stats.AverageQueryTime = qm.stats.TotalQueryTime / time.Duration(qm.stats.TotalQueries)
	if err != nil && err != gorm.ErrRecordNotFound {
		qm.stats.FailedQueries++
	}
	slow := duration > qm.threshold
	if slow {
		qm.stats.SlowQueries++
	}
	qm.mu.Unlock()

	if slow {
		qm.logger.Warn("Slow query detected",
			zap.Duration("duration", duration),
			zap.String("sql", sanitizeSQL(sql)),
			zap.Error(err),
		)
	}
}

// GetStats returns current query statistics
func (qm *QueryMonitor) GetStats() QueryStats {
	qm.mu.RLock()
	defer qm.mu.RUnlock()
	return qm.stats
}

// sanitizeSQL removes literal values and bounds the length
func sanitizeSQL(sql string) string {
	sanitized := strings.ReplaceAll(sql, "'", "?")
	if len(sanitized) > 500 {
		sanitized = sanitized[:500] + "..."
	}
	return sanitized
}

// GORMLogWriter implements GORM's Writer interface on zap
type GORMLogWriter struct {
	logger *zap.Logger
}

// Printf implements the Writer interface
func (w *GORMLogWriter) Printf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)

	// Log based on content
	switch {
	case strings.Contains(msg, "SLOW SQL"):
		w.logger.Warn("GORM slow query", zap.String("message", msg))
	case strings.Contains(msg, "ERROR"):
		w.logger.Error("GORM error", zap.String("message", msg))
	default:
		w.logger.Debug("GORM log", zap.String("message", msg))
	}
}
