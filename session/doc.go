// Package session keeps per-conversation history so follow-up requests
// ("now turn it off") reach the model with the earlier turns attached.
//
// Store is the contract; InMemoryStore is the process local implementation.
// Durable backends can satisfy the same interface without changing callers.
package session
