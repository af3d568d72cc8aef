package remover

import "fmt"

// NetworkError means the request failed before any HTTP response arrived
// (DNS, connect, timeout).
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("background removal: network failure: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// QuotaError means the remote service refused the request because the usage
// limit is exhausted (HTTP 402 or 429).
type QuotaError struct {
	Message string
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("background removal: quota exhausted: %s", e.Message)
}

// ServiceError covers any other non-200 response from the remote service.
type ServiceError struct {
	Status  int
	Message string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("background removal: service error (status %d): %s", e.Status, e.Message)
}
