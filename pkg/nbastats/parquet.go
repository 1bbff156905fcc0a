package nbastats

import (
	"bytes"
	"fmt"

	"github.com/parquet-go/parquet-go"
)

// EncodeParquet serializes game log rows into a parquet document.
func EncodeParquet(rows []GameLogRow) ([]byte, error) {
	var buf bytes.Buffer

	writer := parquet.NewGenericWriter[GameLogRow](&buf)
	if _, err := writer.Write(rows); err != nil {
		return nil, fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close parquet writer: %w", err)
	}

	return buf.Bytes(), nil
}
