package service

import (
	"crypto/subtle"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/uvm-fablab/scheduler/internal/models"
)

// CSVCredentialSource reads user records from a flat CSV file with a
// name,pin,role header row. The file is re-read on every lookup so edits
// take effect without a restart.
type CSVCredentialSource struct {
	path string
}

func NewCSVCredentialSource(path string) *CSVCredentialSource {
	return &CSVCredentialSource{path: path}
}

func (s *CSVCredentialSource) Lookup(name string) (*models.Credential, error) {
	creds, err := s.load()
	if err != nil {
		return nil, err
	}
	for _, c := range creds {
		if strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	return nil, nil
}

func (s *CSVCredentialSource) load() ([]*models.Credential, error) {
	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open users file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read users file: %w", err)
	}

	idx := columnIndex(header)
	var creds []*models.Credential
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read users file: %w", err)
		}
		c := &models.Credential{
			Name: fieldAt(record, idx["name"]),
			Pin:  fieldAt(record, idx["pin"]),
			Role: fieldAt(record, idx["role"]),
		}
		if c.Name == "" {
			continue
		}
		creds = append(creds, c)
	}
	return creds, nil
}

func columnIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, col := range header {
		idx[strings.ToLower(strings.TrimSpace(col))] = i
	}
	return idx
}

func fieldAt(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// AuthService answers login attempts against the credential source.
type AuthService struct {
	creds CredentialSource
}

func NewAuthService(creds CredentialSource) *AuthService {
	return &AuthService{creds: creds}
}

// Authenticate matches the name case-insensitively and the PIN exactly.
// A stored PIN beginning with "$2" is treated as a bcrypt hash.
func (s *AuthService) Authenticate(name, pin string) (*models.User, error) {
	name = strings.TrimSpace(name)
	pin = strings.TrimSpace(pin)
	if name == "" || pin == "" {
		return nil, fmt.Errorf("%w: name and pin required", ErrInvalidInput)
	}

	cred, err := s.creds.Lookup(name)
	if err != nil {
		return nil, err
	}
	if cred == nil || !pinMatches(cred.Pin, pin) {
		return nil, ErrUnauthorized
	}

	return &models.User{
		Name: cred.Name,
		Role: strings.ToLower(strings.TrimSpace(cred.Role)),
	}, nil
}

func pinMatches(stored, presented string) bool {
	if strings.HasPrefix(stored, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(presented)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) == 1
}
