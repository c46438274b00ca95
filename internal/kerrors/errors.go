package kerrors

import (
	"errors"
	"fmt"
	"net"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
)

// Sentinel errors for the failure taxonomy. All typed errors in this package
// unwrap to one of these, so callers use errors.Is() for programmatic handling.
var (
	// ErrConnection indicates the cluster API server is unreachable. During
	// model registration this is fatal: registration happens at startup and
	// an unreachable cluster means a broken deployment.
	ErrConnection = errors.New("cluster unreachable")

	// ErrAuthentication indicates that no credential source in the resolution
	// chain (explicit path, environment, in-cluster, default path) produced
	// valid credentials.
	ErrAuthentication = errors.New("no valid kubernetes credentials")

	// ErrSchemaNotFound indicates that a group/version/kind has no
	// discoverable OpenAPI schema, e.g. a CRD that is not installed yet.
	// Non-fatal when a model is registered with SchemaOptional=true.
	ErrSchemaNotFound = errors.New("schema not found")

	// ErrNotFound indicates the requested object does not exist. Surfaced to
	// callers as a normal outcome, except on delete where it is absorbed.
	ErrNotFound = errors.New("resource not found")

	// ErrConflict indicates a stale resourceVersion on update. Never retried
	// here: a retry-with-merge policy is an application decision.
	ErrConflict = errors.New("resource version conflict")

	// ErrValidation indicates a malformed resource descriptor, a field
	// collision with an injected identity field, or a bad field write.
	ErrValidation = errors.New("validation failed")
)

// SchemaNotFoundError reports which coordinates had no discoverable schema.
type SchemaNotFoundError struct {
	Group   string
	Version string
	Kind    string
}

// Error implements the error interface.
func (e *SchemaNotFoundError) Error() string {
	if e.Group == "" {
		return fmt.Sprintf("no schema found for %s.%s", e.Version, e.Kind)
	}
	return fmt.Sprintf("no schema found for %s/%s.%s", e.Group, e.Version, e.Kind)
}

// Unwrap returns the underlying sentinel error for use with errors.Is().
func (e *SchemaNotFoundError) Unwrap() error {
	return ErrSchemaNotFound
}

// NotFoundError reports a missing object with its coordinates.
type NotFoundError struct {
	Kind      string
	Namespace string
	Name      string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.Namespace != "" {
		return fmt.Sprintf("%s %s/%s not found", e.Kind, e.Namespace, e.Name)
	}
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

// Unwrap returns the underlying sentinel error for use with errors.Is().
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// ConflictError reports a failed optimistic-concurrency check on update.
type ConflictError struct {
	Kind            string
	Name            string
	ResourceVersion string
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %q: stale resourceVersion %q", e.Kind, e.Name, e.ResourceVersion)
}

// Unwrap returns the underlying sentinel error for use with errors.Is().
func (e *ConflictError) Unwrap() error {
	return ErrConflict
}

// ValidationError reports a configuration or usage error on a model.
type ValidationError struct {
	Model  string
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Model == "" {
		return fmt.Sprintf("validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("model %q: %s", e.Model, e.Reason)
}

// Unwrap returns the underlying sentinel error for use with errors.Is().
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// ConnectionError reports an unreachable API server.
type ConnectionError struct {
	Host string
	Err  error
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	if e.Host != "" {
		return fmt.Sprintf("cluster %s unreachable: %v", e.Host, e.Err)
	}
	return fmt.Sprintf("cluster unreachable: %v", e.Err)
}

// Unwrap returns the underlying error for use with errors.As().
func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// Is matches ConnectionError against the ErrConnection sentinel.
func (e *ConnectionError) Is(target error) bool {
	return target == ErrConnection
}

// AuthenticationError reports an exhausted credential resolution chain.
type AuthenticationError struct {
	Reason string
}

// Error implements the error interface.
func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("no valid kubernetes credentials: %s", e.Reason)
}

// Unwrap returns the underlying sentinel error for use with errors.Is().
func (e *AuthenticationError) Unwrap() error {
	return ErrAuthentication
}

// FromAPIStatus classifies an error returned by the Kubernetes API into the
// package taxonomy. Status errors become NotFoundError/ConflictError with the
// given coordinates; transport-level failures become ConnectionError; anything
// else passes through unchanged.
func FromAPIStatus(err error, kind, namespace, name string) error {
	if err == nil {
		return nil
	}

	switch {
	case apierrors.IsNotFound(err):
		return &NotFoundError{Kind: kind, Namespace: namespace, Name: name}
	case apierrors.IsConflict(err):
		return &ConflictError{Kind: kind, Name: name}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return &ConnectionError{Err: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return &ConnectionError{Err: err}
	}

	return err
}
