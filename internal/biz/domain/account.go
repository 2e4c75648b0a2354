package domain

import "errors"

// ErrUnauthorized is returned for platform users with no bound accounts
var ErrUnauthorized = errors.New("unauthorized user")

// AccountID names one portal login (one guardian profile)
type AccountID string

// Directory maps platform users to the ordered portal accounts they may
// act for. It is built once at startup and never mutated.
type Directory struct {
	users map[string][]AccountID
}

// NewDirectory copies users into a read-only Directory
func NewDirectory(users map[string][]AccountID) *Directory {
	d := &Directory{users: make(map[string][]AccountID, len(users))}
	for userID, accounts := range users {
		if len(accounts) == 0 {
			continue
		}
		d.users[userID] = append([]AccountID(nil), accounts...)
	}
	return d
}

// IsAuthorized reports whether userID has at least one account
func (d *Directory) IsAuthorized(userID string) bool {
	_, ok := d.users[userID]
	return ok
}

// Accounts returns a copy of the user's accounts in index order
func (d *Directory) Accounts(userID string) ([]AccountID, error) {
	accounts, ok := d.users[userID]
	if !ok {
		return nil, ErrUnauthorized
	}
	return append([]AccountID(nil), accounts...), nil
}

// Resolve returns the account at index for userID, checked against the
// user's current list
func (d *Directory) Resolve(userID string, index uint) (AccountID, bool) {
	accounts, ok := d.users[userID]
	if !ok || index >= uint(len(accounts)) {
		return "", false
	}
	return accounts[index], true
}

// Users returns the number of authorized users
func (d *Directory) Users() int {
	return len(d.users)
}

// Child is the portal's description of one child of an account
type Child struct {
	ID       string
	Name     string
	PhotoURL string
}
