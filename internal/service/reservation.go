package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/uvm-fablab/scheduler/internal/models"
	"github.com/uvm-fablab/scheduler/internal/store"
)

// ReservationService is the only component allowed to mutate the booking
// store. It owns the overlap check: for a fixed printer no two bookings
// may have intersecting [start, end) intervals.
type ReservationService struct {
	store store.Store
	fleet *FleetConfig

	mu    sync.Mutex
	locks map[int]*sync.Mutex
}

// NewReservationService wires the service to its store. fleet may be nil,
// in which case any positive printer id is accepted.
func NewReservationService(st store.Store, fleet *FleetConfig) *ReservationService {
	return &ReservationService{
		store: st,
		fleet: fleet,
		locks: make(map[int]*sync.Mutex),
	}
}

// printerLock returns the mutex serializing mutations for one printer.
// The read-check-write sequence must hold it, otherwise two concurrent
// creates can both observe "no conflict" and double-book.
func (s *ReservationService) printerLock(printer int) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[printer]
	if !ok {
		l = &sync.Mutex{}
		s.locks[printer] = l
	}
	return l
}

// Create validates a candidate booking and persists it if no existing
// booking on the same printer overlaps it.
func (s *ReservationService) Create(b *models.Booking) error {
	if b == nil {
		return fmt.Errorf("%w: booking required", ErrInvalidInput)
	}
	if b.ID == "" {
		return fmt.Errorf("%w: id required", ErrInvalidInput)
	}
	if b.Owner == "" {
		return fmt.Errorf("%w: owner required", ErrInvalidInput)
	}
	if b.Start.IsZero() || b.End.IsZero() {
		return fmt.Errorf("%w: start and end required", ErrInvalidInput)
	}
	if !s.fleet.Has(b.Printer) {
		return fmt.Errorf("%w %d", ErrUnknownPrinter, b.Printer)
	}
	if !b.Start.Before(b.End) {
		return ErrInvalidInterval
	}
	if b.Title == "" {
		b.Title = b.Owner
	}

	lock := s.printerLock(b.Printer)
	lock.Lock()
	defer lock.Unlock()

	if err := s.checkConflict(b.Printer, b.Start, b.End, ""); err != nil {
		return err
	}

	b.Created = time.Now().UTC()
	return s.store.InsertBooking(b)
}

// Update moves or resizes an existing booking, re-validating the
// no-overlap invariant against all other bookings on the same printer.
// On any failure the stored interval is left unchanged.
func (s *ReservationService) Update(id string, start, end time.Time) error {
	if id == "" {
		return fmt.Errorf("%w: id required", ErrInvalidInput)
	}
	if start.IsZero() || end.IsZero() {
		return fmt.Errorf("%w: start and end required", ErrInvalidInput)
	}

	// Lookup first to learn the printer. The printer of a booking never
	// changes, so taking its lock after the lookup is sound; a concurrent
	// delete surfaces as ErrNotFound from the store below.
	existing, err := s.store.GetBooking(id)
	if err != nil {
		return err
	}
	if !start.Before(end) {
		return ErrInvalidInterval
	}

	lock := s.printerLock(existing.Printer)
	lock.Lock()
	defer lock.Unlock()

	if err := s.checkConflict(existing.Printer, start, end, id); err != nil {
		return err
	}
	return s.store.UpdateBookingTimes(id, start, end)
}

// Delete removes a booking outright. No soft delete.
func (s *ReservationService) Delete(id string) error {
	if id == "" {
		return fmt.Errorf("%w: id required", ErrInvalidInput)
	}
	return s.store.DeleteBooking(id)
}

func (s *ReservationService) ListBookings() ([]*models.Booking, error) {
	return s.store.ListBookings()
}

func (s *ReservationService) ListBookingsByPrinter(printer int) ([]*models.Booking, error) {
	return s.store.ListBookingsByPrinter(printer)
}

// ListPrinters exposes the configured fleet.
func (s *ReservationService) ListPrinters() *models.PrinterListResponse {
	resp := &models.PrinterListResponse{Printers: []models.Printer{}}
	if s.fleet != nil {
		resp.Printers = append(resp.Printers, s.fleet.Printers...)
	}
	resp.TotalPrinters = len(resp.Printers)
	return resp
}

// checkConflict scans the printer's bookings for a half-open interval
// overlap, skipping excludeID so an update never conflicts with itself.
// Callers must hold the printer lock.
func (s *ReservationService) checkConflict(printer int, start, end time.Time, excludeID string) error {
	candidate := &models.Booking{Start: start, End: end}
	bookings, err := s.store.ListBookingsByPrinter(printer)
	if err != nil {
		return err
	}
	for _, b := range bookings {
		if b.ID == excludeID {
			continue
		}
		if candidate.Overlaps(b) {
			return fmt.Errorf("%w: %s from %s to %s", ErrConflict,
				b.ID, b.Start.Format(time.RFC3339), b.End.Format(time.RFC3339))
		}
	}
	return nil
}
