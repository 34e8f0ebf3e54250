package model

import "time"

// School is a single directory entry.
type School struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Address   string    `gorm:"size:512;not null" json:"address"`
	City      string    `gorm:"size:128;not null;index" json:"city"`
	State     string    `gorm:"size:128;not null" json:"state"`
	Contact   string    `gorm:"size:32;not null" json:"contact"`
	EmailID   string    `gorm:"column:email_id;size:255;not null" json:"emailId"`
	Image     string    `gorm:"size:1024" json:"image"`
	CreatedAt time.Time `gorm:"not null;index" json:"createdAt"`
}
