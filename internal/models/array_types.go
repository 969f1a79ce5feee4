package models

import (
	"database/sql/driver"

	"github.com/lib/pq"
)

// SeatLabelArray is a custom type for handling TEXT[] seat label columns in
// PostgreSQL. Order is preserved as stored.
type SeatLabelArray []string

// Value implements the driver.Valuer interface
func (a SeatLabelArray) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	return pq.Array([]string(a)).Value()
}

// Scan implements the sql.Scanner interface
func (a *SeatLabelArray) Scan(src interface{}) error {
	if src == nil {
		*a = nil
		return nil
	}
	slice := (*[]string)(a)
	return pq.Array(slice).Scan(src)
}
