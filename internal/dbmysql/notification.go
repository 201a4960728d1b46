package dbmysql

import "time"

type Notification struct {
	ID            string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID        string     `gorm:"type:varchar(36);not null;index:idx_notifications_user" json:"user_id"`
	TriggerUserID *string    `gorm:"type:varchar(36)" json:"trigger_user_id,omitempty"`
	ItemID        *string    `gorm:"type:varchar(36)" json:"item_id,omitempty"`
	Type          string     `gorm:"type:varchar(32);not null" json:"type"`
	Message       string     `gorm:"type:text;not null" json:"message"`
	Read          bool       `gorm:"not null;default:false" json:"read"`
	CreatedAt     time.Time  `gorm:"index:idx_notifications_created" json:"created_at"`
	ReadAt        *time.Time `json:"read_at,omitempty"`
}

func (Notification) TableName() string {
	return "notifications"
}
