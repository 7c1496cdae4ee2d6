// Package intent maps user facing actions to backend intents.
//
// Two compile-time tables drive the mapping. The remap table corrects an
// action that makes no sense for a device's domain (set_volume on a light
// becomes set_brightness). The rule table resolves an (action, domain) pair
// to a backend intent name plus fixed arguments, preferring a rule for the
// concrete domain over the wildcard rule for the same action.
package intent
