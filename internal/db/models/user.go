package models

import (
	"time"
)

type UserRole string

const (
	RoleEmployee UserRole = "EMPLOYEE"
	RoleManager  UserRole = "MANAGER"
	RoleAdmin    UserRole = "ADMIN"
)

// User is the local principal record backing an external ledger identity.
// The passport is the identity reference enrolled on the ledger network;
// it is unique and immutable after sign-up.
type User struct {
	ID           string   `gorm:"primaryKey"`
	Passport     string   `gorm:"uniqueIndex;not null"`
	PasswordHash string   `gorm:"not null"`
	Role         UserRole `gorm:"not null;default:'EMPLOYEE'"`
	FirstName    string
	LastName     string
	ReportsCount int `gorm:"not null;default:0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Reports []Report `gorm:"foreignKey:AuthorID"`
}
