package friendlyid

import (
	"errors"
	"fmt"
)

// Engine errors.
var (
	// ErrBlankSlug is matched by *BlankSlugError.
	ErrBlankSlug = errors.New("friendlyid: slug is blank")

	// ErrReservedWord is matched by *ReservedWordError.
	ErrReservedWord = errors.New("friendlyid: reserved word")

	// ErrRecordNotFound is matched by *RecordNotFoundError.
	ErrRecordNotFound = errors.New("friendlyid: record not found")

	// ErrUniqueViolation is returned by stores when a write hits the
	// slug uniqueness constraint. The engine retries such saves once.
	ErrUniqueViolation = errors.New("friendlyid: unique violation")

	// ErrStaleRecord is returned by stores when a compare-and-set write
	// finds a value other than the expected one.
	ErrStaleRecord = errors.New("friendlyid: stale record")

	// ErrSaveFailed is returned when a save still violates uniqueness
	// after the retry.
	ErrSaveFailed = errors.New("friendlyid: save failed")

	// ErrInvalidConfig is returned by Register for unusable configuration.
	ErrInvalidConfig = errors.New("friendlyid: invalid config")

	// ErrTypeRegistered is returned when a type name is registered twice.
	ErrTypeRegistered = errors.New("friendlyid: type already registered")

	// ErrUnknownType is returned when a type name is not registered.
	ErrUnknownType = errors.New("friendlyid: unknown type")

	// ErrStoreRequired is returned by New when no store is given.
	ErrStoreRequired = errors.New("friendlyid: store is required")

	// ErrInvalidRecord is returned by Save for records without a primary key.
	ErrInvalidRecord = errors.New("friendlyid: invalid record")

	// ErrRegistryRequired is returned by New when no registry is given.
	ErrRegistryRequired = errors.New("friendlyid: registry is required")
)

// BlankSlugError reports that normalization left nothing of the base value.
type BlankSlugError struct {
	Field string
	Input string
}

func (e *BlankSlugError) Error() string {
	return fmt.Sprintf("friendlyid: %s can not be blank (input %q)", e.Field, e.Input)
}

func (e *BlankSlugError) Is(target error) bool {
	return target == ErrBlankSlug
}

// ReservedWordError reports a slug candidate that matches a reserved word.
// It is attached to the base field so hosts can render it as a
// validation message.
type ReservedWordError struct {
	Field   string
	Word    string
	Message string
}

func (e *ReservedWordError) Error() string {
	return fmt.Sprintf("friendlyid: %s %s", e.Field, e.Message)
}

func (e *ReservedWordError) Is(target error) bool {
	return target == ErrReservedWord
}

// RecordNotFoundError is returned by lookups that resolve nothing.
// Expected and Found are set by FindMany when only part of the
// requested ids resolve.
type RecordNotFoundError struct {
	Type     string
	Input    string
	Field    string
	Expected int
	Found    int
}

func (e *RecordNotFoundError) Error() string {
	if e.Expected > 0 {
		return fmt.Sprintf("friendlyid: couldn't find all %s with %s %s (found %d results, but was looking for %d)",
			e.Type, e.Field, e.Input, e.Found, e.Expected)
	}
	return fmt.Sprintf("friendlyid: couldn't find %s with %s %q", e.Type, e.Field, e.Input)
}

func (e *RecordNotFoundError) Is(target error) bool {
	return target == ErrRecordNotFound
}
