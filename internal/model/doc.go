// Package model provides the record types shared by every QuickBill package.
//
// This package contains type definitions and small pure helpers only. All
// other internal packages import model; model imports nothing internal, so it
// stays the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - JSON field names match the backup file format (camelCase)
//   - A zero ID means "not yet stored"; the store never assigns 0
//   - Document.Items is never empty once a document leaves this package's
//     constructors
package model
