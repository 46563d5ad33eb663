package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shiwutong/lostfound-backend/internal/database"
	"github.com/shiwutong/lostfound-backend/internal/dto"
	"github.com/shiwutong/lostfound-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	ActionFavorite   = "favorite"
	ActionUnfavorite = "unfavorite"
)

type FavoriteService struct {
	db       *gorm.DB
	items    *ItemService
	attempts int
}

func NewFavoriteService(db *gorm.DB, items *ItemService, attempts int) *FavoriteService {
	return &FavoriteService{db: db, items: items, attempts: attempts}
}

// Toggle applies a favorite or unfavorite action. changed is false when the
// request was already satisfied (favoriting twice, unfavoriting a non-favorite).
// Only listings the user can see may be favorited; unfavoriting works on any
// listing that still exists.
func (s *FavoriteService) Toggle(ctx context.Context, userID, itemID uint, kind models.Kind, action string) (bool, error) {
	var err error
	switch action {
	case ActionFavorite:
		_, err = s.items.Visible(ctx, kind, itemID, Viewer{UserID: &userID})
	case ActionUnfavorite:
		_, err = s.items.Get(ctx, kind, itemID)
	default:
		return false, ErrInvalidAction
	}
	if err != nil {
		return false, err
	}

	var affected int64
	err = database.WithRetry(ctx, s.attempts, func() error {
		var res *gorm.DB
		if action == ActionFavorite {
			res = s.db.WithContext(ctx).
				Clauses(clause.OnConflict{DoNothing: true}).
				Create(&models.Favorite{UserID: userID, ItemID: itemID, ItemType: kind})
		} else {
			res = s.db.WithContext(ctx).
				Where("user_id = ? AND item_id = ? AND item_type = ?", userID, itemID, kind).
				Delete(&models.Favorite{})
		}
		affected = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return false, fmt.Errorf("failed to %s item: %w", action, err)
	}
	return affected > 0, nil
}

func (s *FavoriteService) IsFavorited(ctx context.Context, userID, itemID uint, kind models.Kind) (bool, error) {
	var count int64
	err := database.WithRetry(ctx, s.attempts, func() error {
		return s.db.WithContext(ctx).Model(&models.Favorite{}).
			Where("user_id = ? AND item_id = ? AND item_type = ?", userID, itemID, kind).
			Count(&count).Error
	})
	return count > 0, err
}

// List pages through a user's favorites, newest first. kind restricts the
// list to one listing table when non-nil. Favorites whose listing is gone or
// no longer visible to the user are left out of both the page and the total.
func (s *FavoriteService) List(ctx context.Context, userID uint, page, pageSize int, kind *models.Kind) ([]dto.FavoriteItem, dto.Pagination, error) {
	page, pageSize = normalizePage(page, pageSize)

	var favorites []models.Favorite
	var total int64
	err := database.WithRetry(ctx, s.attempts, func() error {
		query := func() *gorm.DB {
			q := s.db.WithContext(ctx).Model(&models.Favorite{}).Where("favorites.user_id = ?", userID)
			if kind != nil {
				q = q.Where("favorites.item_type = ?", *kind)
			}
			return visibleFavorites(q, userID)
		}
		if err := query().Count(&total).Error; err != nil {
			return err
		}
		return query().Order("favorites.created_at DESC").Order("favorites.id DESC").Scopes(models.Paginate(page, pageSize)).Find(&favorites).Error
	})
	if err != nil {
		return nil, dto.Pagination{}, err
	}

	viewer := Viewer{UserID: &userID}
	out := make([]dto.FavoriteItem, 0, len(favorites))
	for _, fav := range favorites {
		item, err := s.items.Visible(ctx, fav.ItemType, fav.ItemID, viewer)
		if errors.Is(err, ErrItemNotFound) {
			// removed or hidden since the page was read
			continue
		}
		if err != nil {
			return nil, dto.Pagination{}, err
		}
		out = append(out, dto.FavoriteItem{
			FavoriteID:  fav.ID,
			ItemID:      item.ID,
			ItemType:    string(fav.ItemType),
			Title:       item.Title,
			Category:    item.Category,
			Location:    item.Location,
			OccurredAt:  item.OccurredAt,
			ImageURL:    item.ImageURL,
			Status:      item.Status,
			FavoritedAt: fav.CreatedAt,
		})
	}
	return out, dto.NewPagination(page, pageSize, total), nil
}

// visibleFavorites keeps favorites whose listing exists in its kind's table and
// is approved or published by userID.
func visibleFavorites(q *gorm.DB, userID uint) *gorm.DB {
	conds := make([]string, 0, 2)
	args := make([]interface{}, 0, 6)
	for _, k := range []models.Kind{models.KindLost, models.KindFound} {
		t := k.Table()
		conds = append(conds, "(favorites.item_type = ? AND EXISTS (SELECT 1 FROM "+t+
			" WHERE "+t+".id = favorites.item_id AND ("+t+".status = ? OR "+t+".publisher_id = ?)))")
		args = append(args, string(k), models.StatusApproved, userID)
	}
	return q.Where("("+strings.Join(conds, " OR ")+")", args...)
}
