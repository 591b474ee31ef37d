package adapter

import (
	"errors"
	"fmt"

	"github.com/Algodons/algo-dbcore/pkg/dbcapabilities"
)

// Standard adapter errors
var (
	// ErrOperationNotSupported is returned when an operation is not supported by the engine
	ErrOperationNotSupported = errors.New("operation not supported by this database")

	// ErrNotConnected is returned when an operation requires an established connection
	ErrNotConnected = errors.New("not connected")

	// ErrConnectionFailed is returned when a connection attempt fails
	ErrConnectionFailed = errors.New("connection failed")

	// ErrInvalidConfiguration is returned when the configuration is invalid
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrNotFound is returned when a connection, engine type, or resource is unknown
	ErrNotFound = errors.New("not found")

	// ErrTransactionInProgress is returned when BeginTransaction is called while a
	// transaction is already open on the adapter instance
	ErrTransactionInProgress = errors.New("transaction already in progress")

	// ErrNoTransaction is returned when commit/rollback is called without an open transaction
	ErrNoTransaction = errors.New("no transaction in progress")
)

// DatabaseError wraps engine-specific errors with additional context.
// This provides a consistent error structure across all database types.
type DatabaseError struct {
	DatabaseType dbcapabilities.DatabaseID
	Operation    string
	Cause        error
}

// Error implements the error interface.
func (e *DatabaseError) Error() string {
	return fmt.Sprintf("[%s] %s: %v", e.DatabaseType, e.Operation, e.Cause)
}

// Unwrap returns the underlying error.
func (e *DatabaseError) Unwrap() error {
	return e.Cause
}

// NewDatabaseError creates a new DatabaseError.
func NewDatabaseError(dbType dbcapabilities.DatabaseID, operation string, cause error) *DatabaseError {
	return &DatabaseError{
		DatabaseType: dbType,
		Operation:    operation,
		Cause:        cause,
	}
}

// UnsupportedOperationError is returned when an engine lacks the requested
// capability (transactions, backups, column-type modification). Callers use it
// to distinguish "not supported by this engine" from "failed this time".
type UnsupportedOperationError struct {
	DatabaseType dbcapabilities.DatabaseID
	Operation    string
	Reason       string
}

// Error implements the error interface.
func (e *UnsupportedOperationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s does not support %s: %s", e.DatabaseType, e.Operation, e.Reason)
	}
	return fmt.Sprintf("%s does not support %s", e.DatabaseType, e.Operation)
}

// Is checks if the error is ErrOperationNotSupported.
func (e *UnsupportedOperationError) Is(target error) bool {
	return errors.Is(target, ErrOperationNotSupported)
}

// NewUnsupportedOperationError creates a new UnsupportedOperationError.
func NewUnsupportedOperationError(dbType dbcapabilities.DatabaseID, operation string, reason string) *UnsupportedOperationError {
	return &UnsupportedOperationError{
		DatabaseType: dbType,
		Operation:    operation,
		Reason:       reason,
	}
}

// ConnectionError is returned when a connect/disconnect failure occurs. It
// always carries the native cause.
type ConnectionError struct {
	DatabaseType dbcapabilities.DatabaseID
	Host         string
	Port         int
	Cause        error
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to %s at %s:%d: %v", e.DatabaseType, e.Host, e.Port, e.Cause)
}

// Unwrap returns the underlying error.
func (e *ConnectionError) Unwrap() error {
	return e.Cause
}

// Is checks if the error is ErrConnectionFailed.
func (e *ConnectionError) Is(target error) bool {
	if errors.Is(target, ErrConnectionFailed) {
		return true
	}
	return errors.Is(e.Cause, target)
}

// NewConnectionError creates a new ConnectionError.
func NewConnectionError(dbType dbcapabilities.DatabaseID, host string, port int, cause error) *ConnectionError {
	return &ConnectionError{
		DatabaseType: dbType,
		Host:         host,
		Port:         port,
		Cause:        cause,
	}
}

// SchemaError is returned when reading metadata for a single table or
// collection fails. Whole-schema listing recovers from it by skipping the
// table rather than failing the call.
type SchemaError struct {
	DatabaseType dbcapabilities.DatabaseID
	Table        string
	Cause        error
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	return fmt.Sprintf("failed to introspect %s table %q: %v", e.DatabaseType, e.Table, e.Cause)
}

// Unwrap returns the underlying error.
func (e *SchemaError) Unwrap() error {
	return e.Cause
}

// NewSchemaError creates a new SchemaError.
func NewSchemaError(dbType dbcapabilities.DatabaseID, table string, cause error) *SchemaError {
	return &SchemaError{
		DatabaseType: dbType,
		Table:        table,
		Cause:        cause,
	}
}

// NotFoundError is returned when a connection id, engine type, or operation
// tag is unknown.
type NotFoundError struct {
	ResourceType string
	ResourceName string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.ResourceType, e.ResourceName)
}

// Is checks if the error is ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return errors.Is(target, ErrNotFound)
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resourceType, resourceName string) *NotFoundError {
	return &NotFoundError{
		ResourceType: resourceType,
		ResourceName: resourceName,
	}
}

// NotConnectedError is returned when a query, schema, or transaction operation
// is attempted while the adapter is not in the connected state.
type NotConnectedError struct {
	DatabaseType dbcapabilities.DatabaseID
	Operation    string
}

// Error implements the error interface.
func (e *NotConnectedError) Error() string {
	return fmt.Sprintf("%s: cannot %s: not connected", e.DatabaseType, e.Operation)
}

// Is checks if the error is ErrNotConnected.
func (e *NotConnectedError) Is(target error) bool {
	return errors.Is(target, ErrNotConnected)
}

// NewNotConnectedError creates a new NotConnectedError.
func NewNotConnectedError(dbType dbcapabilities.DatabaseID, operation string) *NotConnectedError {
	return &NotConnectedError{
		DatabaseType: dbType,
		Operation:    operation,
	}
}

// WrapError wraps an error with database context.
// If the error is already a DatabaseError, it returns it as-is.
func WrapError(dbType dbcapabilities.DatabaseID, operation string, err error) error {
	if err == nil {
		return nil
	}

	// Don't double-wrap
	var dbErr *DatabaseError
	if errors.As(err, &dbErr) {
		return err
	}

	return NewDatabaseError(dbType, operation, err)
}

// IsUnsupported checks if an error indicates an unsupported operation.
func IsUnsupported(err error) bool {
	return errors.Is(err, ErrOperationNotSupported)
}

// IsNotConnected checks if an error indicates a missing connection.
func IsNotConnected(err error) bool {
	return errors.Is(err, ErrNotConnected)
}

// IsConnectionError checks if an error is a connection error.
func IsConnectionError(err error) bool {
	return errors.Is(err, ErrConnectionFailed)
}

// IsNotFound checks if an error indicates an unknown connection, engine, or resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
