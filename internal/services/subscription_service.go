package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fluencyjet/sentence-master/internal/dto"
	"github.com/fluencyjet/sentence-master/internal/models"
)

// Payment events understood by the webhook.
const (
	PaymentPurchase     = "PURCHASE"
	PaymentRenewal      = "RENEWAL"
	PaymentCancellation = "CANCELLATION"
	PaymentExpiration   = "EXPIRATION"
)

type SubscriptionService struct {
	db *gorm.DB
}

func NewSubscriptionService(db *gorm.DB) *SubscriptionService {
	return &SubscriptionService{db: db}
}

// HandleWebhookEvent applies one payment provider event. Unknown event types
// are acknowledged and ignored.
func (s *SubscriptionService) HandleWebhookEvent(ctx context.Context, event *dto.PaymentWebhook) error {
	switch strings.ToUpper(strings.TrimSpace(event.Event)) {
	case PaymentPurchase, PaymentRenewal:
		return s.activate(ctx, event)
	case PaymentCancellation:
		return s.setStatus(ctx, event, "cancelled", false)
	case PaymentExpiration:
		return s.setStatus(ctx, event, "expired", true)
	default:
		slog.Info("payment webhook ignored", "event", event.Event, "id", event.ID)
		return nil
	}
}

func (s *SubscriptionService) activate(ctx context.Context, event *dto.PaymentWebhook) error {
	userID, err := uuid.Parse(event.UserID)
	if err != nil {
		return fmt.Errorf("%w: user_id must be a uuid", ErrInvalidInput)
	}
	plan, ok := NormalizePlan(event.Plan)
	if !ok || plan == models.PlanFree {
		return fmt.Errorf("%w: unknown paid plan %q", ErrInvalidInput, event.Plan)
	}
	if event.ProviderRef == "" {
		return fmt.Errorf("%w: provider_ref is required", ErrInvalidInput)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
			"plan":       plan,
			"tier_level": plan,
		})
		if res.Error != nil {
			return storageErr("update plan", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrUserNotFound
		}

		sub := models.Subscription{
			ID:                 uuid.New(),
			UserID:             userID,
			ProviderRef:        event.ProviderRef,
			Plan:               plan,
			Status:             "active",
			CurrentPeriodStart: msToTime(event.PeriodStart),
			CurrentPeriodEnd:   msToTime(event.PeriodEnd),
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "provider_ref"}},
			DoUpdates: clause.AssignmentColumns([]string{"plan", "status", "current_period_start", "current_period_end", "updated_at"}),
		}).Create(&sub).Error
		if err != nil {
			return storageErr("upsert subscription", err)
		}
		return nil
	})
}

func (s *SubscriptionService) setStatus(ctx context.Context, event *dto.PaymentWebhook, status string, resetPlan bool) error {
	if event.ProviderRef == "" {
		return fmt.Errorf("%w: provider_ref is required", ErrInvalidInput)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sub models.Subscription
		err := tx.Where("provider_ref = ?", event.ProviderRef).First(&sub).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: subscription %s", ErrNotFound, event.ProviderRef)
		}
		if err != nil {
			return storageErr("find subscription", err)
		}

		if err := tx.Model(&sub).Update("status", status).Error; err != nil {
			return storageErr("update subscription", err)
		}
		if !resetPlan {
			return nil
		}

		err = tx.Model(&models.User{}).Where("id = ?", sub.UserID).Updates(map[string]interface{}{
			"plan":       models.PlanFree,
			"tier_level": models.PlanFree,
		}).Error
		if err != nil {
			return storageErr("reset plan", err)
		}
		return nil
	})
}

func msToTime(ms int64) time.Time {
	if ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
