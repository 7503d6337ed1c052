package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fluencyjet/sentence-master/internal/dto"
	"github.com/fluencyjet/sentence-master/internal/models"
)

var validPlans = map[string]bool{
	models.PlanFree:         true,
	models.PlanBeginner:     true,
	models.PlanIntermediate: true,
	models.PlanPro:          true,
	models.PlanAll:          true,
	models.PlanPaid:         true,
}

// NormalizePlan lowercases a plan name and reports whether it is known.
func NormalizePlan(plan string) (string, bool) {
	p := strings.ToLower(strings.TrimSpace(plan))
	return p, validPlans[p]
}

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// SetPlacement stores the track the user placed into.
func (s *UserService) SetPlacement(ctx context.Context, userID uuid.UUID, track string) (*dto.UserResponse, error) {
	t := NormalizeTrack(track)
	if t == "" {
		return nil, fmt.Errorf("%w: track must be BEGINNER or INTERMEDIATE", ErrInvalidInput)
	}
	return s.update(ctx, userID, map[string]interface{}{"placement": t})
}

// UpdateTier applies an admin tier change. Nil fields are left alone. An
// empty placement clears it.
func (s *UserService) UpdateTier(ctx context.Context, userID uuid.UUID, req *dto.TierUpdateRequest) (*dto.UserResponse, error) {
	updates := map[string]interface{}{}

	if req.Plan != nil {
		plan, ok := NormalizePlan(*req.Plan)
		if !ok {
			return nil, fmt.Errorf("%w: unknown plan %q", ErrInvalidInput, *req.Plan)
		}
		updates["plan"] = plan
		updates["tier_level"] = plan
	}
	if req.HasAccess != nil {
		updates["has_access"] = *req.HasAccess
	}
	if req.Placement != nil {
		if strings.TrimSpace(*req.Placement) == "" {
			updates["placement"] = ""
		} else {
			t := NormalizeTrack(*req.Placement)
			if t == "" {
				return nil, fmt.Errorf("%w: placement must be BEGINNER or INTERMEDIATE", ErrInvalidInput)
			}
			updates["placement"] = t
		}
	}
	if len(updates) == 0 {
		return nil, fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}

	resp, err := s.update(ctx, userID, updates)
	if err != nil {
		return nil, err
	}
	slog.Info("user tier updated", "user_id", userID.String(), "action", "admin.tier", "plan", resp.Plan, "has_access", resp.HasAccess)
	return resp, nil
}

func (s *UserService) update(ctx context.Context, userID uuid.UUID, updates map[string]interface{}) (*dto.UserResponse, error) {
	db := s.db.WithContext(ctx)

	res := db.Model(&models.User{}).Where("id = ?", userID).Updates(updates)
	if res.Error != nil {
		return nil, storageErr("update user", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrUserNotFound
	}

	var user models.User
	if err := db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, storageErr("reload user", err)
	}
	out := ToUserResponse(&user)
	return &out, nil
}
