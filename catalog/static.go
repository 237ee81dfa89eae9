package catalog

import (
	"context"
)

// staticCatalog is an immutable list of schemas.
type staticCatalog struct {
	schemas []Schema
	byName  map[string]Schema
}

// NewStaticCatalog creates a catalog over the given schemas. The first schema is
// the default one. Later schemas with a duplicate name are ignored.
func NewStaticCatalog(schemas ...Schema) Catalog {
	c := &staticCatalog{byName: make(map[string]Schema, len(schemas))}
	for _, s := range schemas {
		if s == nil {
			continue
		}
		if _, ok := c.byName[s.Name()]; ok {
			continue
		}
		c.byName[s.Name()] = s
		c.schemas = append(c.schemas, s)
	}
	return c
}

// Schemas implements Catalog interface.
func (c *staticCatalog) Schemas(ctx context.Context) ([]Schema, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result := make([]Schema, len(c.schemas))
	copy(result, c.schemas)
	return result, nil
}

// Schema implements Catalog interface.
func (c *staticCatalog) Schema(ctx context.Context, name string) (Schema, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	schema, ok := c.byName[name]
	if !ok {
		return nil, nil // Not found, not an error
	}
	return schema, nil
}
