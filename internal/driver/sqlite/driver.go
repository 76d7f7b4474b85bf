// Package sqlite provides the SQLite driver implementation on top of the
// pure-Go modernc.org/sqlite engine. It registers itself with the driver
// registry on import.
package sqlite

import (
	"github.com/johndauphine/db-utility/internal/driver"
	_ "modernc.org/sqlite" // database/sql driver "sqlite"
)

func init() {
	driver.Register(&Driver{})
}

// Driver implements driver.Driver for SQLite databases.
type Driver struct{}

func (d *Driver) Name() string { return "sqlite" }

func (d *Driver) Aliases() []string { return []string{"sqlite3"} }

func (d *Driver) Defaults() driver.DriverDefaults { return driver.DriverDefaults{} }

func (d *Driver) SQLDriverName() string { return "sqlite" }

func (d *Driver) Dialect() driver.Dialect { return &Dialect{} }

func (d *Driver) Introspector() driver.Introspector { return &Introspector{} }
