// Package core provides the small set of shared types used across hassmesh:
//
//   - Content and Part values exchanged with language models (text, function
//     calls, function responses)
//   - ToolContext, the scoped execution surface handed to tools
//   - ModelLimiter, bounding model round trips per run
//
// Implementation concerns (device resolution, provider SDKs, tool
// registries) live in their own packages and depend on core, never the
// other way around.
package core
