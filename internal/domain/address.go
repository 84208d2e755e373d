package domain

// Address Model, persisted in the address table
type Address struct {
	ID           uint   `gorm:"primaryKey" json:"id"`                  // Primary key, assigned by the store
	EmailAddress string `gorm:"size:30;not null" json:"email_address"` // Email address, required
	Neighborhood string `gorm:"size:30;not null" json:"neighborhood"`  // Neighborhood, required
	UserID       uint   `gorm:"not null;index" json:"user_id"`         // Foreign key to the owning User
	// Back-reference for navigation only; User owns the lifecycle
	User *User `gorm:"foreignKey:UserID" json:"-"`
}

// TableName maps Address onto the address table
func (Address) TableName() string {
	return "address"
}
