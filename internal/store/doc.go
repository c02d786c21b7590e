// Package store persists built snapshots so the viewer can start without
// re-parsing the dump.
//
// Two backends are provided: a JSON file written with an atomic replace, and a
// PostgreSQL table holding one JSONB document per export. Both expose a
// core.SnapshotSource so the server treats them like the dump parser.
package store
