package db

import "fmt"

// Op names the store command that failed.
const (
	OpPing        = "PING"
	OpMGet        = "MGET"
	OpIncrWithTTL = "INCRBY+EXPIRE"
)

// Error wraps an underlying error with the operation and key for diagnostics.
type Error struct {
	Op  string
	Key string
	Err error
}

func (e *Error) Error() string {
	if e.Key == "" {
		return e.Op + ": " + e.Err.Error()
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Key, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
