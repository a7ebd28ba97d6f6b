package workflow

import (
	"errors"
	"fmt"
	"strings"

	"go-catalog-admin/pkg/validator"
)

var ErrBusy = errors.New("a submission for this drawer is already in progress")

// ValidationError blocks a submission before any remote call is made.
type ValidationError struct {
	Fields []*validator.FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.FailedField + ": " + f.Tag
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// CreateError means the product insert failed; nothing was created.
type CreateError struct {
	Err error
}

func (e *CreateError) Error() string { return "create product: " + e.Err.Error() }

func (e *CreateError) Unwrap() error { return e.Err }

// UpdateError means the product update failed; associations were not touched.
type UpdateError struct {
	ProductID uint
	Err       error
}

func (e *UpdateError) Error() string {
	return fmt.Sprintf("update product %d: %v", e.ProductID, e.Err)
}

func (e *UpdateError) Unwrap() error { return e.Err }

// AssociationWriteError wraps the *repository.WriteError of a failed
// association step.
type AssociationWriteError struct {
	ProductID  uint
	RolledBack bool
	Err        error
}

func (e *AssociationWriteError) Error() string {
	return fmt.Sprintf("write categories of product %d: %v", e.ProductID, e.Err)
}

func (e *AssociationWriteError) Unwrap() error { return e.Err }

// CompensatingDeleteError means the rollback could not remove the product
// created by a failed create submission.
type CompensatingDeleteError struct {
	ProductID uint
	Attempts  int
	Err       error
}

func (e *CompensatingDeleteError) Error() string {
	return fmt.Sprintf("rollback delete of product %d failed after %d attempts: %v", e.ProductID, e.Attempts, e.Err)
}

func (e *CompensatingDeleteError) Unwrap() error { return e.Err }
