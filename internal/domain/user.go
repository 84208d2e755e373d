package domain

// User Model, persisted in the user_account table
type User struct {
	ID       uint    `gorm:"primaryKey" json:"id"`         // Primary key, assigned by the store
	Name     string  `gorm:"size:30;not null" json:"name"` // Display name, required
	Fullname *string `gorm:"size:30" json:"fullname"`      // Full name, nullable
	Nickname *string `gorm:"size:30" json:"nickname"`      // Nickname, nullable
	// Owned address collection; rows die with their owner
	Addresses []Address `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"addresses"`
}

// TableName maps User onto the user_account table
func (User) TableName() string {
	return "user_account"
}
