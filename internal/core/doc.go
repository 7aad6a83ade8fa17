// Package core implements the bulk card import pipeline.
//
// The package holds all import logic independent of the concrete store, so it
// can be driven by the CLI, by tests against an in-memory repository, or by
// any other caller that supplies a [Repository].
//
// # Pipeline
//
// Data flows strictly one row at a time:
//
//	RowReader -> (skip if IdentifierIndex.Contains) -> BuildCard -> BatchCommitter -> Transaction
//
//  1. [Importer.Run] opens the source and wraps it with [WrapForStreaming]
//     (BOM stripping, UTF-8 repair, byte counting).
//  2. [NewRowReader] consumes the header and yields one [RawRow] per line.
//  3. A single store transaction is opened and the [IdentifierIndex] snapshot
//     is loaded from the repository.
//  4. New rows are converted by [BuildCard] and added to the [BatchCommitter],
//     which persists every full batch and releases its working set.
//  5. The final partial batch is flushed and the transaction committed.
//
// Batching bounds memory on the write path only. Every batch lands in the same
// transaction, so a failure at any point rolls the store back to its pre-run
// state.
//
// # Error Handling
//
// Failures are classified with sentinel kinds ([ErrInput], [ErrStructural],
// [ErrCoercion], [ErrStore], [ErrRollbackFailed]) that callers test with
// errors.Is. [MapError] maps any error to a coded, user-facing message:
//
//   - FILE001-FILE004: source file errors
//   - VAL001-VAL003: row shape and coercion errors
//   - DB001-DB007: store errors
//   - IMP001: rollback failure
package core
