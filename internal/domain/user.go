package domain

import "time"

type User struct {
	ID           int64     `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Avatar       string    `db:"avatar" json:"avatar"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
