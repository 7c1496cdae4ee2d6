package core

import "github.com/google/uuid"

// NewID returns a random identifier for runs and function calls.
func NewID() string { return uuid.NewString() }
