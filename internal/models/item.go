package models

import "time"

type Kind string

const (
	KindLost  Kind = "lost"
	KindFound Kind = "found"
)

// ParseKind accepts "lost" or "found".
func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case KindLost, KindFound:
		return Kind(s), true
	}
	return "", false
}

// Table returns the table holding listings of this kind.
func (k Kind) Table() string {
	if k == KindLost {
		return "lost_items"
	}
	return "found_items"
}

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusReturned = "returned"
)

// Item is the shared shape of lost and found listings. It has no table of its
// own: queries pick one with db.Table(kind.Table()).
type Item struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:200;not null" json:"title"`
	Description string    `gorm:"type:text;not null" json:"description"`
	Category    string    `gorm:"size:50;not null;index" json:"category"`
	Location    string    `gorm:"size:200;not null" json:"location"`
	OccurredAt  time.Time `gorm:"not null;index" json:"occurred_at"`
	ImageURL    *string   `gorm:"size:255" json:"image_url"`
	PublisherID *uint     `gorm:"index" json:"publisher_id"`
	Status      string    `gorm:"size:20;not null;default:'pending';index" json:"status"`
	ReviewNote  string    `gorm:"size:500" json:"review_note,omitempty"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Publisher   *User     `gorm:"foreignKey:PublisherID;constraint:OnDelete:SET NULL" json:"-"`
	Kind        Kind      `gorm:"-" json:"item_type,omitempty"`
}

type LostItem struct {
	Item
}

func (LostItem) TableName() string {
	return KindLost.Table()
}

type FoundItem struct {
	Item
}

func (FoundItem) TableName() string {
	return KindFound.Table()
}

// ItemDetail is an item joined with its publisher's display fields. The
// publisher columns are NULL when the account no longer exists.
type ItemDetail struct {
	Item
	PublisherUsername  *string `json:"publisher_username"`
	PublisherStudentID *string `json:"publisher_student_id"`
}
