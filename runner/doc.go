// Package runner drives a tool calling conversation: it sends the user
// request plus the registered tool declarations to a model, executes the
// function calls the model returns, feeds the results back and repeats until
// the model answers in plain text.
//
// A Runner is stateless between runs and safe for concurrent use. Each run
// gets its own ID and model call budget.
package runner
