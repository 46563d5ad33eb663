package models

import "time"

// Favorite links a user to a listing. ItemType says which listing table ItemID points into.
type Favorite struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_favorites_user_item,priority:1" json:"user_id"`
	ItemID    uint      `gorm:"not null;uniqueIndex:idx_favorites_user_item,priority:2" json:"item_id"`
	ItemType  Kind      `gorm:"size:10;not null;uniqueIndex:idx_favorites_user_item,priority:3" json:"item_type"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}
