package sqlgen

import (
	"fmt"
	"strings"

	"github.com/askdb/askdb/internal/schema"
)

const (
	fallbackColumnCap = 5
	fallbackRowLimit  = 10
)

// Synthesize builds the deterministic minimal query used when repair is
// exhausted: the first five schema columns in declaration order, capped at
// ten rows. By construction it passes Validate for the same schema.
func Synthesize(desc schema.Descriptor, table string) string {
	cols := desc.Columns()
	if len(cols) > fallbackColumnCap {
		cols = cols[:fallbackColumnCap]
	}

	names := make([]string, len(cols))
	for i, col := range cols {
		names[i] = col.Name
	}

	return fmt.Sprintf("SELECT %s FROM %s LIMIT %d",
		strings.Join(names, ", "), table, fallbackRowLimit)
}
