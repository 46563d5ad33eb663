package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shiwutong/lostfound-backend/internal/database"
	"github.com/shiwutong/lostfound-backend/internal/dto"
	"github.com/shiwutong/lostfound-backend/internal/models"
	"gorm.io/gorm"
)

// allowedTransitions lists the only status edges a moderator may apply.
var allowedTransitions = map[string]string{
	models.StatusPending:  models.StatusApproved,
	models.StatusApproved: models.StatusReturned,
}

type ModerationService struct {
	db       *gorm.DB
	items    *ItemService
	attempts int
}

func NewModerationService(db *gorm.DB, items *ItemService, attempts int) *ModerationService {
	return &ModerationService{db: db, items: items, attempts: attempts}
}

// ListByStatus returns the moderation queue for one kind, oldest first so the
// longest-waiting listings are reviewed first.
func (s *ModerationService) ListByStatus(ctx context.Context, kind models.Kind, status string, page, pageSize int) ([]models.Item, dto.Pagination, error) {
	if status == "" {
		status = models.StatusPending
	}
	switch status {
	case models.StatusPending, models.StatusApproved, models.StatusReturned:
	default:
		return nil, dto.Pagination{}, invalidField("status", "status must be pending, approved or returned")
	}
	page, pageSize = normalizePage(page, pageSize)

	var items []models.Item
	var total int64
	err := database.WithRetry(ctx, s.attempts, func() error {
		query := func() *gorm.DB {
			return s.db.WithContext(ctx).Table(kind.Table()).Where("status = ?", status)
		}
		if err := query().Count(&total).Error; err != nil {
			return err
		}
		return query().Order("created_at ASC").Scopes(models.Paginate(page, pageSize)).Find(&items).Error
	})
	if err != nil {
		return nil, dto.Pagination{}, err
	}

	for i := range items {
		items[i].Kind = kind
	}
	return items, dto.NewPagination(page, pageSize, total), nil
}

// Transition moves a listing along pending -> approved -> returned.
func (s *ModerationService) Transition(ctx context.Context, kind models.Kind, id uint, newStatus, note string) (*models.Item, error) {
	item, err := s.items.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if allowedTransitions[item.Status] != newStatus {
		return nil, ErrInvalidTransition
	}

	var result *gorm.DB
	err = database.WithRetry(ctx, s.attempts, func() error {
		result = s.db.WithContext(ctx).Table(kind.Table()).
			Where("id = ? AND status = ?", id, item.Status).
			Updates(map[string]interface{}{
				"status":      newStatus,
				"review_note": note,
				"updated_at":  time.Now(),
			})
		return result.Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update %s item status: %w", kind, err)
	}
	if result.RowsAffected == 0 {
		// Someone else moved it first.
		return nil, ErrInvalidTransition
	}

	slog.Info("listing status changed", "kind", string(kind), "item_id", id, "from", item.Status, "to", newStatus)
	item.Status = newStatus
	item.ReviewNote = note
	return item, nil
}
