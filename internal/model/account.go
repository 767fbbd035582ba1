package model

import (
	"time"

	"go-inventory-api/pkg/storage"
)

type Role string

const (
	RoleSupplier Role = "supplier"
	RoleConsumer Role = "consumer"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleSupplier, RoleConsumer, RoleAdmin:
		return true
	}
	return false
}

type District string

const (
	DistrictDhaka      District = "Dhaka"
	DistrictChittagong District = "Chittagong"
	DistrictKhulna     District = "Khulna"
	DistrictRajshahi   District = "Rajshahi"
	DistrictSylhet     District = "Sylhet"
	DistrictRangpur    District = "Rangpur"
	DistrictBarisal    District = "Barisal"
	DistrictMymensingh District = "Mymensingh"
)

func (d District) Valid() bool {
	switch d {
	case DistrictDhaka, DistrictChittagong, DistrictKhulna, DistrictRajshahi,
		DistrictSylhet, DistrictRangpur, DistrictBarisal, DistrictMymensingh:
		return true
	}
	return false
}

// Account represents a registered user of the catalog
type Account struct {
	BaseModel
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Phone        *string   `gorm:"type:varchar(32);uniqueIndex" json:"phone"`
	Name         string    `gorm:"type:varchar(255);not null" json:"name"`
	PasswordHash *string   `gorm:"type:varchar(255)" json:"-"` // Hidden from JSON
	Picture      *string   `gorm:"type:varchar(512)" json:"picture"`
	Occupation   *string   `gorm:"type:varchar(255)" json:"occupation"`
	District     *District `gorm:"type:varchar(32)" json:"district"`
	Address      *string   `gorm:"type:text" json:"address"`
	Role         Role      `gorm:"type:varchar(16);not null" json:"user_type"`
	Active       bool      `gorm:"not null" json:"active"`
	Verified     bool      `gorm:"not null" json:"verified"`
	Deleted      bool      `gorm:"not null" json:"-"` // Reserved, no operation consults it
	TokenVersion string    `gorm:"type:varchar(64);not null;default:''" json:"-"`
}

// AccountResponse is used for API responses (without sensitive data)
type AccountResponse struct {
	ID         uint      `json:"id"`
	Email      string    `json:"email"`
	Phone      *string   `json:"phone"`
	Name       string    `json:"name"`
	Picture    *string   `json:"picture"`
	UserType   Role      `json:"user_type"`
	Occupation *string   `json:"occupation"`
	District   *District `json:"district"`
	Address    *string   `json:"address"`
	Active     bool      `json:"active"`
	Verified   bool      `json:"verified"`
	CreatedAt  time.Time `json:"created_at"`
}

// ToResponse converts Account to AccountResponse, resolving the picture
// path against baseURL.
func (a *Account) ToResponse(baseURL string) AccountResponse {
	var picture *string
	if a.Picture != nil {
		resolved := storage.AbsoluteURL(baseURL, *a.Picture)
		picture = &resolved
	}
	return AccountResponse{
		ID:         a.ID,
		Email:      a.Email,
		Phone:      a.Phone,
		Name:       a.Name,
		Picture:    picture,
		UserType:   a.Role,
		Occupation: a.Occupation,
		District:   a.District,
		Address:    a.Address,
		Active:     a.Active,
		Verified:   a.Verified,
		CreatedAt:  a.CreatedAt,
	}
}
