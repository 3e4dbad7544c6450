package models

// User is a customer record. Only the loyalty columns are managed here;
// the rest is written by the ordering app.
type User struct {
	BaseModel
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Phone           string `gorm:"uniqueIndex" json:"phone"`
	DisplayName     string `json:"displayName"`
	Points          int    `json:"points"`
	MembershipLevel string `gorm:"default:bronze" json:"membershipLevel"`
}

// Admin is a dashboard operator allowed to edit store configuration.
type Admin struct {
	BaseModel
	Email        string `gorm:"uniqueIndex" json:"email"`
	Name         string `json:"name"`
	PasswordHash string `json:"-"`
}
