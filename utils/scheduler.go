package utils

import (
	"time"

	"lms/config"
	"lms/database"
	"lms/logger"
	"lms/models"
	"lms/models/commerce"
	courseModels "lms/models/course"

	"github.com/robfig/cron/v3"
)

const maintenanceSpec = "@every 15m"

// InitializeScheduler starts the maintenance jobs. The caller stops the
// returned scheduler on shutdown.
func InitializeScheduler() *cron.Cron {
	c := cron.New()

	if _, err := c.AddFunc(maintenanceSpec, RunMaintenance); err != nil {
		logger.Log.Fatal().Err(err).Msg("failed to register maintenance job")
	}

	c.Start()
	logger.Log.Info().Str("spec", maintenanceSpec).Msg("scheduler started")
	return c
}

// RunMaintenance runs every cleanup job once.
func RunMaintenance() {
	now := time.Now()
	log := logger.Log.With().Str("component", "scheduler").Logger()

	if n, err := PurgePasswordResets(now); err != nil {
		log.Error().Err(err).Msg("purge password resets failed")
	} else if n > 0 {
		log.Info().Int64("rows", n).Msg("purged password resets")
	}

	if n, err := PurgeSessions(now); err != nil {
		log.Error().Err(err).Msg("purge sessions failed")
	} else if n > 0 {
		log.Info().Int64("rows", n).Msg("purged sessions")
	}

	ttl := time.Duration(config.AppConfig.PendingOrderTTLHours) * time.Hour
	if n, err := CancelStaleOrders(now, ttl); err != nil {
		log.Error().Err(err).Msg("cancel stale orders failed")
	} else if n > 0 {
		log.Info().Int64("rows", n).Msg("cancelled stale orders")
	}

	if n, err := ExpireCertificates(now); err != nil {
		log.Error().Err(err).Msg("expire certificates failed")
	} else if n > 0 {
		log.Info().Int64("rows", n).Msg("expired certificates")
	}
}

// PurgePasswordResets removes used or expired reset tokens.
func PurgePasswordResets(now time.Time) (int64, error) {
	result := database.Database.Db.Unscoped().
		Where("used_at IS NOT NULL OR expires_at < ?", now).
		Delete(&models.PasswordReset{})
	return result.RowsAffected, result.Error
}

// PurgeSessions removes sessions that expired or were revoked more than a
// day before now.
func PurgeSessions(now time.Time) (int64, error) {
	cutoff := now.Add(-24 * time.Hour)
	result := database.Database.Db.Unscoped().
		Where("expires_at < ? OR (revoked_at IS NOT NULL AND revoked_at < ?)", cutoff, cutoff).
		Delete(&models.Session{})
	return result.RowsAffected, result.Error
}

// CancelStaleOrders cancels pending orders created more than ttl before now.
func CancelStaleOrders(now time.Time, ttl time.Duration) (int64, error) {
	result := database.Database.Db.Model(&commerce.Order{}).
		Where("status = ? AND created_at < ?", commerce.OrderPending, now.Add(-ttl)).
		Update("status", commerce.OrderCancelled)
	return result.RowsAffected, result.Error
}

// ExpireCertificates marks active issuances past their expiry as EXPIRED.
func ExpireCertificates(now time.Time) (int64, error) {
	result := database.Database.Db.Model(&courseModels.CertificateIssuance{}).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at < ?", courseModels.IssuanceActive, now).
		Update("status", courseModels.IssuanceExpired)
	return result.RowsAffected, result.Error
}
