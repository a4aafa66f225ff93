package service

import "github.com/uvm-fablab/scheduler/internal/models"

// CredentialSource abstracts the user credential list for testability.
// Lookup matches the name case-insensitively and returns nil when no
// record exists.
type CredentialSource interface {
	Lookup(name string) (*models.Credential, error)
}
