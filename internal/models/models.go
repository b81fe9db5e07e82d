// package models defines the persisted records of the proxy
package models

import (
	"time"
)

// Model defines the base interface for all persisted records.
type Model interface {
	ID() string           // ID returns the unique identifier for this record
	CreatedAt() time.Time // CreatedAt returns when this record was produced
	Validate() error      // Validate checks if the record's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific record types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new record into the database
	Get(id string) (T, error)                  // Get retrieves a record by its ID
	Delete(id string) error                    // Delete removes a record from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves records matching the given criteria, newest first
	Prune(before time.Time) (int64, error)     // Prune removes records older than before and returns how many were removed
}
