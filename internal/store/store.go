package store

import (
	"errors"
	"time"

	"github.com/uvm-fablab/scheduler/internal/models"
)

var (
	// ErrNotFound is returned when no booking has the requested id.
	ErrNotFound = errors.New("booking not found")
	// ErrDuplicateID is returned when inserting a booking whose id already exists.
	ErrDuplicateID = errors.New("booking id already exists")
)

// Store defines the interface for booking persistence.
type Store interface {
	// ListBookings returns all bookings ordered ascending by start time.
	ListBookings() ([]*models.Booking, error)
	// ListBookingsByPrinter returns the bookings for one printer,
	// ordered ascending by start time.
	ListBookingsByPrinter(printer int) ([]*models.Booking, error)
	GetBooking(id string) (*models.Booking, error)
	InsertBooking(booking *models.Booking) error
	// UpdateBookingTimes rewrites start/end only; every other column is untouched.
	UpdateBookingTimes(id string, start, end time.Time) error
	DeleteBooking(id string) error

	Close() error
}
