// Package config loads hassmesh settings from a YAML file with environment
// variable overrides.
//
// Load order: built-in defaults, then the YAML file, then HASSMESH_*
// environment variables. The result is validated before it is returned.
//
//	hass:
//	  tool_prefix: auto
//	  cache_ttl: 300s
//	logging:
//	  level: debug
//	model:
//	  provider: anthropic
package config
