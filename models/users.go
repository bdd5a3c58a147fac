package models

import "time"

type Role string

const (
	RoleAdmin         Role = "admin"
	RoleResident      Role = "resident"
	RoleVendor        Role = "vendor"
	RoleDeliveryAgent Role = "delivery_agent"
	RoleWarden        Role = "warden"
)

// Valid reports whether r is one of the five known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleResident, RoleVendor, RoleDeliveryAgent, RoleWarden:
		return true
	}
	return false
}

// NeedsApproval reports whether accounts with this role are created
// unapproved and must be approved before they can log in.
func (r Role) NeedsApproval() bool {
	return r == RoleResident || r == RoleWarden
}

type User struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"type:varchar(255);not null" json:"name"`
	Email      string    `gorm:"type:varchar(255);unique;not null" json:"email"`
	Password   string    `gorm:"type:varchar(255);not null" json:"-"`
	Role       Role      `gorm:"type:varchar(20);not null;index" json:"role"`
	Phone      string    `gorm:"type:varchar(15)" json:"phone_number,omitempty"`
	Address    string    `gorm:"type:text" json:"address,omitempty"`
	IsApproved bool      `gorm:"not null" json:"is_approved"`
	IsActive   bool      `gorm:"not null" json:"is_active"`
	WardenID   *uint     `gorm:"index" json:"warden_id,omitempty"`
	Warden     *User     `gorm:"foreignKey:WardenID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
