// Package catalog defines the immutable data model for toolgrab: recipes
// describing how a tool can be installed, handlers describing how failed
// attempts are classified and remediated, synthetic failure scenarios used
// by the coverage validator, and host profiles and presets.
//
// Catalogs are loaded once at process start from YAML documents, validated
// against struct tags and CUE schemas, and never mutated afterwards. They
// are safe for concurrent reads without locking.
package catalog
