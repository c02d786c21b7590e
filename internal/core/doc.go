// Package core turns dump statements into an immutable snapshot of assets and
// their lookup tables.
//
// # Architecture
//
//   - Table Definitions: registered at init time via [Register]. Each one names
//     the dump table it consumes and projects tuple positions into a [Builder].
//   - Loader: [Load] reads a dump line by line, classifies lines with [Lookup],
//     tokenizes them in parallel and applies tuples in source order.
//   - Snapshot: the frozen result. It is safe to share between goroutines and
//     serialises to the JSON shape written by the export command.
//   - Service: loads a snapshot once from a [SnapshotSource] on first use and
//     answers asset list and detail queries.
//
// # Table Registry
//
//	core.Register(core.TableDefinition{
//	    Key:       "brands",
//	    Table:     "brand",
//	    MinFields: 2,
//	    Apply: func(b *core.Builder, t dump.Tuple) {
//	        b.PutBrand(t.Field(0), t.Field(1))
//	    },
//	})
//
// # Error Handling
//
// Malformed dump content never fails a load: unterminated tuples and tuples
// narrower than a table's MinFields are dropped and counted in [LoadStats],
// and ids that resolve to nothing display as "". Technical errors are mapped
// to user-facing messages with [MapError].
package core
