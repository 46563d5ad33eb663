package models

import "gorm.io/gorm"

// Approved restricts a listing query to publicly visible rows.
func Approved(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", StatusApproved)
}

// Paginate applies 1-based offset pagination.
func Paginate(page, pageSize int) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset((page - 1) * pageSize).Limit(pageSize)
	}
}
