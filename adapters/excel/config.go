package excel

import (
	"bizinsight/adapters/datareadiness/coercer"
)

// ReaderConfig holds configuration for uploaded tabular files
type ReaderConfig struct {
	CoercionConfig coercer.CoercionConfig `json:"coercion_config"`
	// Sheet selects the workbook sheet; empty means the first sheet in workbook order.
	Sheet string `json:"sheet"`
}

// DefaultReaderConfig returns sensible defaults for upload processing
func DefaultReaderConfig() ReaderConfig {
	return ReaderConfig{
		CoercionConfig: coercer.DefaultCoercionConfig(),
	}
}
