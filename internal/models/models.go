// Package models defines the domain entities for the expense tracker.
package models

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MaxNameLength is the maximum allowed length for expense names.
const MaxNameLength = 100

// MaxLocationLength is the maximum allowed length for expense locations.
const MaxLocationLength = 200

var (
	// ErrEmptyName is returned when an expense has no name.
	ErrEmptyName = errors.New("expense name is required")
	// ErrEmptyLocation is returned when an expense has no location.
	ErrEmptyLocation = errors.New("expense location is required")
	// ErrMissingDate is returned when an expense is created without a date.
	ErrMissingDate = errors.New("expense date is required")
	// ErrNegativePrice is returned for prices below zero.
	ErrNegativePrice = errors.New("expense price must not be negative")
	// ErrMissingOwner is returned when an expense is not bound to a user.
	ErrMissingOwner = errors.New("expense owner is required")
	// ErrNameTooLong is returned when the name exceeds MaxNameLength.
	ErrNameTooLong = errors.New("expense name is too long")
	// ErrLocationTooLong is returned when the location exceeds MaxLocationLength.
	ErrLocationTooLong = errors.New("expense location is too long")
)

// User represents a Telegram user.
type User struct {
	ID        int64
	Username  string
	FirstName string
	LastName  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Expense is a single expense record owned by one user.
//
// ID is assigned by the store and never changes. A zero Date means the
// stored value was missing or could not be decoded.
type Expense struct {
	ID        string
	UserID    int64
	Name      string
	Price     decimal.Decimal
	Date      time.Time
	Location  string
	CreatedAt time.Time
}

// HasDate reports whether the expense carries a usable calendar date.
func (e *Expense) HasDate() bool {
	return !e.Date.IsZero()
}

// Validate checks the fields required at creation time.
func (e *Expense) Validate() error {
	name := strings.TrimSpace(e.Name)
	location := strings.TrimSpace(e.Location)

	switch {
	case e.UserID == 0:
		return ErrMissingOwner
	case name == "":
		return ErrEmptyName
	case len(name) > MaxNameLength:
		return ErrNameTooLong
	case location == "":
		return ErrEmptyLocation
	case len(location) > MaxLocationLength:
		return ErrLocationTooLong
	case e.Price.IsNegative():
		return ErrNegativePrice
	case e.Date.IsZero():
		return ErrMissingDate
	}
	return nil
}
