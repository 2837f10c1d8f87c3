package models

import "time"

// Role determines what a user may see and do. The API layer resolves
// role checks; services receive the already-authorized actor.
type Role string

const (
	RoleUser    Role = "user"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

// CanViewAll reports whether the role may read other users' transactions.
func (r Role) CanViewAll() bool { return r == RoleManager || r == RoleAdmin }

// CanExport reports whether the role may export transaction data.
func (r Role) CanExport() bool { return r == RoleManager || r == RoleAdmin }

// CanRestore reports whether the role may view deleted transactions and
// restore them.
func (r Role) CanRestore() bool { return r == RoleAdmin }

// CanHardDelete reports whether the role may permanently delete a
// transaction and its stored receipts.
func (r Role) CanHardDelete() bool { return r == RoleAdmin }

// User represents the user model in the database. Emails are unique
// case-insensitively (enforced by a functional index in migrations).
type User struct {
	Base
	Email       string     `gorm:"uniqueIndex;not null" json:"email"`
	Password    string     `gorm:"not null" json:"-"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Role        Role       `gorm:"not null;default:user" json:"role"`
	IsActive    bool       `gorm:"default:true" json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`

	Transactions []Transaction `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"transactions,omitempty"`
}
