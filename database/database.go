package database

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/mbolis/quick-xform/config"
)

func Open(cfg config.Config) (db *sql.DB, err error) {
	db, err = sql.Open("sqlite3", cfg.DBUrl)
	if err != nil {
		return
	}

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		db.Close()
		return
	}

	// db tuning options
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(2 * time.Hour)

	err = migrateDB(db)
	if err != nil {
		db.Close()
		return
	}

	return
}

// CreateAccount stores an account with a bcrypt hash of password.
func CreateAccount(db *sql.DB, username, password string, roles ...string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}
	role := "admin"
	if len(roles) > 0 {
		role = roles[0]
		for _, r := range roles[1:] {
			role += "," + r
		}
	}
	_, err = db.Exec(
		"INSERT INTO account (username, password_hash, roles) VALUES (?, ?, ?)",
		username, hash, role,
	)
	return errors.Wrap(err, "insert account")
}
