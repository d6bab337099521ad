// Package catalog persists the set of known databases and their
// lifecycle history in SQLite with WAL mode and embedded schema
// migrations. It implements the supervisor's event sink, so every
// create, recreation, invalidation, and close survives the process
// and feeds the CLI's catalog and events views.
package catalog
