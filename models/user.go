package models

import "github.com/uptrace/bun"

// User is a club member account with bcrypt-hashed password.
// Public controls whether the member appears on leaderboards
// visible to other users.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID        int     `bun:"id,pk,autoincrement" json:"id"`
	Username  string  `bun:"username,notnull,unique" json:"username"`
	Password  string  `bun:"password,notnull" json:"-"`
	FirstName string  `bun:"first_name,notnull" json:"firstName"`
	LastName  string  `bun:"last_name,notnull" json:"lastName"`
	Birthdate string  `bun:"birthdate,notnull,type:date" json:"birthdate"`
	Public    bool    `bun:"public,notnull,default:false" json:"public"`
	ClubRole  *string `bun:"club_role" json:"clubRole,omitempty"`
}
