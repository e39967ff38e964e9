// Package repo implements the document and contact operations on top of the
// store: saving the Working Document, listing with filters, starting edits,
// duplicates and conversions, and confirmation-gated deletes.
//
// Multi-step operations (save, then contact upsert, then counter advance)
// run sequentially without a cross-table transaction. A failure part way
// leaves the earlier steps persisted.
package repo
