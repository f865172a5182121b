package model

import (
	"time"

	"gorm.io/gorm"
)

// Manual is one persisted entry of a manual hierarchy.
// Entries of the same group form a forest through ParentID, ordered by
// level and then by sort.
type Manual struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Name      string    `gorm:"not null" json:"name"`
	GroupCode string    `gorm:"not null;index:manual_group_order_index,priority:1" json:"groupCode"`
	Level     int       `gorm:"not null;index:manual_group_order_index,priority:2" json:"level"`
	Sort      int       `gorm:"not null;index:manual_group_order_index,priority:3" json:"sort"`
	ParentID  *uint64   `gorm:"index" json:"parentId"`
	// Content is nil for directory entries.
	Content *string `json:"content,omitempty"`
	// Key is set once when the entry is created and never changes afterwards.
	Key string `gorm:"column:manual_key;index" json:"key"`
}

func (Manual) TableName() string {
	return "manuals"
}

// IsNew reports whether the entry has not been persisted yet.
func (m *Manual) IsNew() bool {
	return m.ID == 0
}

// HasContent reports whether the entry is a file entry with text content.
func (m *Manual) HasContent() bool {
	return m.Content != nil
}

func SaveManual(db *gorm.DB, manual *Manual) error {
	return db.Save(manual).Error
}

func GetManual(db *gorm.DB, id uint64) (*Manual, error) {
	manual := &Manual{}
	err := db.Where("id = ?", id).First(manual).Error
	if err != nil {
		return nil, err
	}

	return manual, nil
}

// ListManualsByIDs loads the stored entries among ids, in id order. Unknown ids are skipped.
func ListManualsByIDs(db *gorm.DB, ids []uint64) ([]*Manual, error) {
	var manuals []*Manual
	if len(ids) == 0 {
		return manuals, nil
	}

	err := db.Where("id in (?)", ids).Order("id asc").Find(&manuals).Error
	return manuals, err
}

// GroupCount is the number of entries stored under a group code.
type GroupCount struct {
	GroupCode string
	Count     int64
}

// CountManualsByGroup counts the stored entries of every group, ordered by group code.
func CountManualsByGroup(db *gorm.DB) ([]GroupCount, error) {
	var counts []GroupCount
	err := db.Model(&Manual{}).
		Select("group_code, count(*) as count").
		Group("group_code").
		Order("group_code asc").
		Scan(&counts).Error
	return counts, err
}
