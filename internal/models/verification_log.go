package models

import "time"

// VerificationLog records every ownership-verification answer that was checked.
type VerificationLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ItemID     uint      `gorm:"not null;index:idx_verification_logs_item,priority:1" json:"item_id"`
	ItemType   Kind      `gorm:"size:10;not null;index:idx_verification_logs_item,priority:2" json:"item_type"`
	UserAnswer string    `gorm:"type:text;not null" json:"user_answer"`
	IsValid    bool      `gorm:"not null;default:false" json:"is_valid"`
	Method     string    `gorm:"size:20" json:"method"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}
