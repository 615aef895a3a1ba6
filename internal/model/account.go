package model

import "time"

// Address is a saved shipping address.
type Address struct {
	ID           string `json:"id"`
	FullName     string `json:"fullName"`
	Phone        string `json:"phone"`
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2,omitempty"`
	City         string `json:"city"`
	State        string `json:"state"`
	Pincode      string `json:"pincode"`
	IsDefault    bool   `json:"isDefault"`
}

// Role distinguishes shoppers from back-office users.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleSeller   Role = "seller"
	RoleAdmin    Role = "admin"
)

// User is an authenticated account.
type User struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	Name         string    `json:"name" db:"name"`
	Phone        string    `json:"phone,omitempty" db:"phone"`
	Role         Role      `json:"role" db:"role"`
	Disabled     bool      `json:"disabled" db:"disabled"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

// HomeContent is the editable homepage payload.
type HomeContent struct {
	Announcement        string    `json:"announcement,omitempty"`
	Banners             []Banner  `json:"banners"`
	FeaturedCategoryIDs []string  `json:"featuredCategoryIds,omitempty"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// Banner is a homepage hero slide.
type Banner struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	Image    string `json:"image"`
	Link     string `json:"link,omitempty"`
}
