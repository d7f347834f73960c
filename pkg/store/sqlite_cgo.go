//go:build cgo

package store

// With cgo the mattn sqlite3 driver is used; it is faster than the pure Go
// driver.

import _ "github.com/mattn/go-sqlite3"

const whichSQLiteDriver = "sqlite3"
