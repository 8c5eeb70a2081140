package shape

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/paulmach/orb"
)

// ErrInvalidRecord is returned when a record fails ingestion checks.
var ErrInvalidRecord = errors.New("invalid record")

// Validator checks records once at ingestion so that geometry math further
// down never sees a degenerate line.
type Validator struct {
	v *validator.Validate
}

// NewValidator creates a Validator with the geometry rules registered.
func NewValidator() *Validator {
	v := validator.New()
	// Registration only fails on an empty tag or a nil func.
	_ = v.RegisterValidation("nondegenerate", nonDegenerate)
	return &Validator{v: v}
}

// Validate checks a single record.
func (val *Validator) Validate(r Record) error {
	if err := val.v.Struct(r); err != nil {
		return fmt.Errorf("record %d: %w: %v", r.ID, ErrInvalidRecord, err)
	}
	return nil
}

// Ingest assigns sequential IDs and validates every record.
// Records are modified in place.
func (val *Validator) Ingest(records []Record) error {
	for i := range records {
		records[i].ID = i
		if err := val.Validate(records[i]); err != nil {
			return err
		}
	}
	return nil
}

// nonDegenerate rejects geometries containing a zero-length segment.
func nonDegenerate(fl validator.FieldLevel) bool {
	ls, ok := fl.Field().Interface().(orb.LineString)
	if !ok {
		return false
	}
	for i := 1; i < len(ls); i++ {
		if ls[i].Equal(ls[i-1]) {
			return false
		}
	}
	return true
}
