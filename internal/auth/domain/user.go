package domain

import "time"

type User struct {
	ID           string
	Username     string
	PasswordHash string   // argon2id PHC, or a legacy {pbkdf2} hash
	Roles        []string // order preserved as stored
	Enabled      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
