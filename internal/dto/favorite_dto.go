package dto

import "time"

type ToggleFavoriteRequest struct {
	ItemID uint   `json:"itemId"`
	Type   string `json:"type"`
	Action string `json:"action"`
}

// FavoriteItem is one row of a user's favorites list, joined with the listing it points at.
type FavoriteItem struct {
	FavoriteID  uint      `json:"favoriteId"`
	ItemID      uint      `json:"itemId"`
	ItemType    string    `json:"itemType"`
	Title       string    `json:"title"`
	Category    string    `json:"category"`
	Location    string    `json:"location"`
	OccurredAt  time.Time `json:"time"`
	ImageURL    *string   `json:"imageUrl"`
	Status      string    `json:"status"`
	FavoritedAt time.Time `json:"favoritedAt"`
}

type ToggleFavoriteResponse struct {
	Favorited bool `json:"favorited"`
	Changed   bool `json:"changed"`
}
