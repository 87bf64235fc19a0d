package models

import "time"

// User is a registered account. PasswordHash is empty for accounts created
// through an external identity provider. JWTVersion is the revocation counter:
// refresh tokens carry a snapshot of it, and bumping it invalidates every
// outstanding refresh token for the account.
type User struct {
	ID           string    `bson:"_id,omitempty" json:"id"`
	Username     string    `bson:"username" json:"username"`
	Email        string    `bson:"email" json:"email"`
	PasswordHash string    `bson:"passwordHash,omitempty" json:"-"`
	JWTVersion   int       `bson:"jwtVersion" json:"-"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updatedAt"`
}
