package devapi

import (
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// Accounts holds the backoffice logins of the development backend.
type Accounts struct {
	mu     sync.RWMutex
	hashes map[string]string
	// dummy is compared against for unknown users, so a missing account
	// costs as much as a wrong password
	dummy string
}

func NewAccounts() *Accounts {
	dummy, _ := HashPassword("unused-password")
	return &Accounts{hashes: make(map[string]string), dummy: dummy}
}

// Add creates or replaces an account.
func (a *Accounts) Add(username, password string) error {
	if username == "" || password == "" {
		return fmt.Errorf("username and password are required")
	}
	hash, err := HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.hashes[username] = hash
	return nil
}

// Check reports whether password is right for username.
func (a *Accounts) Check(username, password string) bool {
	a.mu.RLock()
	hash, ok := a.hashes[username]
	a.mu.RUnlock()
	if !ok {
		CheckPasswordHash(password, a.dummy)
		return false
	}
	return CheckPasswordHash(password, hash)
}

// Exists reports whether username has an account.
func (a *Accounts) Exists(username string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.hashes[username]
	return ok
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
