package models

import "time"

// Review is a customer rating of a product.
type Review struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(64)"`
	ProductID string    `json:"productId" gorm:"index;type:varchar(64)" validate:"required"`
	Author    string    `json:"author" validate:"required,max=100"`
	Rating    int       `json:"rating" validate:"gte=1,lte=5"`
	Comment   string    `json:"comment,omitempty" validate:"omitempty,max=2000"`
	CreatedAt time.Time `json:"createdAt"`
}
