package logging

import (
	"time"

	"gorm.io/gorm"

	"github.com/fluencyjet/sentence-master/internal/models"
)

// CleanupSystemLogs deletes system_logs rows older than the retention window
// and returns how many were removed.
func CleanupSystemLogs(db *gorm.DB, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)
	result := db.Where("timestamp < ?", cutoff).Delete(&models.SystemLog{})
	return result.RowsAffected, result.Error
}
