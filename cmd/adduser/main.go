// cmd/adduser/main.go
// Creates or updates a member account in the database.
//
// Usage:
//
//	go run ./cmd/adduser -username marie -password testing -first Marie -last Dupont -birthdate 1990-04-12
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/orientraid/raidapi/config"
	bundb "github.com/orientraid/raidapi/db"
	"github.com/orientraid/raidapi/models"
)

func main() {
	username := flag.String("username", "", "username (required)")
	password := flag.String("password", "", "plain-text password (required)")
	first := flag.String("first", "", "first name (required)")
	last := flag.String("last", "", "last name (required)")
	birthdate := flag.String("birthdate", "", "birthdate YYYY-MM-DD (required)")
	public := flag.Bool("public", false, "visible on leaderboards")
	role := flag.String("role", "", "club role, e.g. admin")
	flag.Parse()

	if *username == "" || *password == "" || *first == "" || *last == "" || *birthdate == "" {
		log.Fatal("-username, -password, -first, -last and -birthdate are required")
	}
	if _, err := time.Parse("2006-01-02", *birthdate); err != nil {
		log.Fatal("birthdate must be YYYY-MM-DD")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal("bcrypt:", err)
	}

	cfg := config.Load()
	db := bundb.Setup(cfg)
	defer db.Close()

	user := &models.User{
		Username:  *username,
		Password:  string(hash),
		FirstName: *first,
		LastName:  *last,
		Birthdate: *birthdate,
		Public:    *public,
	}
	if *role != "" {
		user.ClubRole = role
	}

	_, err = db.NewInsert().Model(user).
		On("CONFLICT (username) DO UPDATE SET password = EXCLUDED.password, first_name = EXCLUDED.first_name, last_name = EXCLUDED.last_name, birthdate = EXCLUDED.birthdate, public = EXCLUDED.public, club_role = EXCLUDED.club_role").
		Exec(context.Background())
	if err != nil {
		log.Fatal("insert user:", err)
	}

	fmt.Printf("user %q saved\n", *username)
}
