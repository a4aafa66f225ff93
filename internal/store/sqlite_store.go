package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/uvm-fablab/scheduler/internal/models"
	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dbPath, err := resolveDBPath(path)
	if err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := initSchema(db); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, errors.Join(err, cerr)
		}
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func resolveDBPath(path string) (string, error) {
	abs := filepath.Clean(path)
	if strings.HasSuffix(abs, ".db") {
		if err := os.MkdirAll(filepath.Dir(abs), 0o750); err != nil {
			return "", err
		}
		return abs, nil
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return "", err
	}
	return filepath.Join(abs, "bookings.db"), nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		"PRAGMA foreign_keys = ON;",
		`CREATE TABLE IF NOT EXISTS bookings (
			id      TEXT PRIMARY KEY,
			printer INTEGER NOT NULL,
			owner   TEXT NOT NULL,
			title   TEXT NOT NULL,
			start_time TEXT NOT NULL,
			end_time   TEXT NOT NULL,
			created    TEXT NOT NULL
		);`,
		"CREATE INDEX IF NOT EXISTS idx_bookings_printer_time ON bookings(printer, start_time, end_time);",
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const bookingColumns = `id, printer, owner, title, start_time, end_time, created`

func (s *SQLiteStore) ListBookings() ([]*models.Booking, error) {
	rows, err := s.db.Query(`SELECT ` + bookingColumns + ` FROM bookings ORDER BY start_time`)
	if err != nil {
		return nil, err
	}
	return scanBookings(rows)
}

func (s *SQLiteStore) ListBookingsByPrinter(printer int) ([]*models.Booking, error) {
	rows, err := s.db.Query(`SELECT `+bookingColumns+` FROM bookings WHERE printer = ? ORDER BY start_time`, printer)
	if err != nil {
		return nil, err
	}
	return scanBookings(rows)
}

func (s *SQLiteStore) GetBooking(id string) (*models.Booking, error) {
	row := s.db.QueryRow(`SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
	booking, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return booking, nil
}

func (s *SQLiteStore) InsertBooking(booking *models.Booking) error {
	// INSERT OR IGNORE keeps the existence check and the write in one
	// atomic statement; zero rows affected means the id is taken.
	res, err := s.db.Exec(`INSERT OR IGNORE INTO bookings (`+bookingColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		booking.ID, booking.Printer, booking.Owner, booking.Title,
		formatTime(booking.Start), formatTime(booking.End), formatTime(booking.Created))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrDuplicateID
	}
	return nil
}

func (s *SQLiteStore) UpdateBookingTimes(id string, start, end time.Time) error {
	res, err := s.db.Exec(`UPDATE bookings SET start_time = ?, end_time = ? WHERE id = ?`,
		formatTime(start), formatTime(end), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) DeleteBooking(id string) error {
	res, err := s.db.Exec(`DELETE FROM bookings WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var (
		b                   models.Booking
		start, end, created string
	)
	if err := row.Scan(&b.ID, &b.Printer, &b.Owner, &b.Title, &start, &end, &created); err != nil {
		return nil, err
	}
	var err error
	if b.Start, err = time.Parse(time.RFC3339Nano, start); err != nil {
		return nil, fmt.Errorf("corrupt start time for booking %s: %w", b.ID, err)
	}
	if b.End, err = time.Parse(time.RFC3339Nano, end); err != nil {
		return nil, fmt.Errorf("corrupt end time for booking %s: %w", b.ID, err)
	}
	if b.Created, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return nil, fmt.Errorf("corrupt created time for booking %s: %w", b.ID, err)
	}
	return &b, nil
}

func scanBookings(rows *sql.Rows) ([]*models.Booking, error) {
	defer func() {
		_ = rows.Close()
	}()

	var bookings []*models.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}
	return bookings, rows.Err()
}
