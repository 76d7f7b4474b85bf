// Package mysql provides the MySQL/MariaDB driver implementation.
// It registers itself with the driver registry on import.
package mysql

import (
	_ "github.com/go-sql-driver/mysql" // database/sql driver "mysql"
	"github.com/johndauphine/db-utility/internal/driver"
)

func init() {
	driver.Register(&Driver{})
}

// Driver implements driver.Driver for MySQL databases.
type Driver struct{}

// Name returns the primary driver name.
func (d *Driver) Name() string {
	return "mysql"
}

// Aliases returns alternative names for this driver.
func (d *Driver) Aliases() []string {
	return []string{"mariadb"}
}

// Defaults returns the default configuration values for MySQL.
func (d *Driver) Defaults() driver.DriverDefaults {
	return driver.DriverDefaults{Port: 3306}
}

// SQLDriverName returns the database/sql driver name.
func (d *Driver) SQLDriverName() string {
	return "mysql"
}

// Dialect returns the MySQL dialect.
func (d *Driver) Dialect() driver.Dialect {
	return &Dialect{}
}

// Introspector returns the MySQL schema introspector.
func (d *Driver) Introspector() driver.Introspector {
	return &Introspector{dialect: &Dialect{}}
}
