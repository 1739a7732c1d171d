package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	RoleTherapist = "therapist"
	RolePatient   = "patient"
)

type User struct {
	ID        uint   `gorm:"primaryKey"`
	Email     string `gorm:"uniqueIndex"`
	Password  string
	FirstName string
	LastName  string
	Role      string `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

func (u *User) IsTherapist() bool {
	return u.Role == RoleTherapist
}
