// Package postgres provides the PostgreSQL driver implementation.
// It registers itself with the driver registry on import.
package postgres

import (
	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver "pgx"
	"github.com/johndauphine/db-utility/internal/driver"
)

func init() {
	driver.Register(&Driver{})
}

// Driver implements driver.Driver for PostgreSQL databases.
type Driver struct{}

// Name returns the primary driver name.
func (d *Driver) Name() string {
	return "postgres"
}

// Aliases returns alternative names for this driver.
func (d *Driver) Aliases() []string {
	return []string{"postgresql", "pgsql", "pg"}
}

// Defaults returns the default configuration values for PostgreSQL.
func (d *Driver) Defaults() driver.DriverDefaults {
	return driver.DriverDefaults{Port: 5432}
}

// SQLDriverName returns the pgx stdlib driver name.
func (d *Driver) SQLDriverName() string {
	return "pgx"
}

// Dialect returns the PostgreSQL dialect.
func (d *Driver) Dialect() driver.Dialect {
	return &Dialect{}
}

// Introspector returns the PostgreSQL schema introspector.
func (d *Driver) Introspector() driver.Introspector {
	return &Introspector{dialect: &Dialect{}}
}
