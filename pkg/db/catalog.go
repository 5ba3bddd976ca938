package db

import (
	"context"

	"gorm.io/gorm"
)

// Catalog lists the tables of the connected database.
type Catalog struct {
	db *gorm.DB
}

func NewCatalog(conn *gorm.DB) *Catalog {
	return &Catalog{db: conn}
}

func (c *Catalog) Collections(ctx context.Context) ([]string, error) {
	return c.db.WithContext(ctx).Migrator().GetTables()
}
