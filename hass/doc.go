// Package hass ties the device cache, the action remapper and the intent
// resolver together into the two operations exposed to the LLM tool layer:
// Control and GetState.
//
// Both operations are text in, text out. Every failure mode (unknown
// action, backend reported error, transport failure) is rendered into the
// returned string so nothing typed crosses the tool boundary, and cache
// refresh failures are swallowed so the last good snapshot keeps serving.
package hass
