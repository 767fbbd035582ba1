package model

import "time"

// OTPChallenge holds the single active one-time code for an email
type OTPChallenge struct {
	BaseModel
	Email     string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	Code      string    `gorm:"type:varchar(64);not null"`
	ExpiresAt time.Time `gorm:"not null"`
}

func (c *OTPChallenge) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}
