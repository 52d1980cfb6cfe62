package database

import (
	"path/filepath"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/mbolis/quick-xform/config"
)

func TestOpenMigratesAndCreatesAccount(t *testing.T) {
	cfg := config.Config{DBUrl: filepath.Join(t.TempDir(), "test.sqlite")}
	db, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	if err := CreateAccount(db, "ada", "secret", "admin", "editor"); err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}
	var hash []byte
	var roles string
	err = db.QueryRow("SELECT password_hash, roles FROM account WHERE username = ?", "ada").Scan(&hash, &roles)
	if err != nil {
		t.Fatalf("select account: %v", err)
	}
	if roles != "admin,editor" {
		t.Fatalf("roles = %q", roles)
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte("secret")); err != nil {
		t.Fatalf("password hash: %v", err)
	}

	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM form").Scan(&n); err != nil || n != 0 {
		t.Fatalf("form table: %d, %v", n, err)
	}

	// a second open finds the schema up to date
	db2, err := Open(cfg)
	if err != nil {
		t.Fatalf("second Open() error = %v", err)
	}
	db2.Close()
}
