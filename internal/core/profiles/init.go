// Package profiles registers the import profiles with the core registry.
// Import it for side effects.
package profiles
