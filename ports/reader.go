package ports

import (
	"context"
	"io"

	"bizinsight/domain/table"
)

// TableReader parses an uploaded byte stream into a table, choosing the parser by filename
type TableReader interface {
	Read(ctx context.Context, src io.Reader, filename string) (*table.Table, error)
}
