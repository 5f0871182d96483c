package entities

import "time"

// User owns a bookshelf: every Book row references its owner through Book.OwnerID.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"column:user_name;uniqueIndex;size:20;not null" json:"user_name"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

func (User) TableName() string {
	return "user"
}
