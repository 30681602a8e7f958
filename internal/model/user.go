package model

import "time"

type User struct {
	ID                    string     `db:"id" json:"id"`
	Email                 string     `db:"email" json:"email"`
	HashedPassword        *string    `db:"hashed_password" json:"-"`
	DisplayName           string     `db:"display_name" json:"displayName"`
	FirebaseUID           *string    `db:"firebase_uid" json:"-"`
	IsVerified            bool       `db:"is_verified" json:"isVerified"`
	VerificationCode      *string    `db:"verification_code" json:"-"`
	VerificationExpiresAt *time.Time `db:"verification_expires_at" json:"-"`
	ResetCode             *string    `db:"reset_code" json:"-"`
	ResetExpiresAt        *time.Time `db:"reset_expires_at" json:"-"`
	CreatedAt             time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt             time.Time  `db:"updated_at" json:"updatedAt"`
}

type CreateUserParams struct {
	Email                 string
	HashedPassword        *string
	DisplayName           string
	FirebaseUID           *string
	VerificationCode      *string
	VerificationExpiresAt *time.Time
}
