// Package importer contains the per-entity import steps of the catalog
// pipeline. Each importer fetches one entity (or collection) from the
// supplier API and upserts it into the local store by its natural key,
// performing one gated store read and at most one write per key. Failures
// are downgraded to structured stage results; importers never panic past
// their boundary.
package importer
