// Package model defines the provider‑agnostic abstractions used to drive a
// tool-calling language model with the Home Assistant tools.
//
// Providers (model/openai, model/anthropic) implement Model so the runner
// stays decoupled from vendor SDKs. ScriptedModel replays canned turns for
// tests and examples.
package model
