package entities

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

type Book struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:100;not null" json:"title"`
	Author      string    `gorm:"size:100;not null;default:''" json:"author"`
	Genre       string    `gorm:"size:100;not null;default:''" json:"genre"`
	Rating      int       `gorm:"not null;check:chk_book_rating,rating >= 1 AND rating <= 5" json:"rating"`
	DateCreated time.Time `gorm:"column:date_created;<-:create;not null;index" json:"date_created"`
	OwnerID     uint      `gorm:"index;not null" json:"owner_id"`
	Owner       User      `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Book) TableName() string {
	return "book"
}
