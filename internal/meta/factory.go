package meta

import (
	"fmt"

	"photodex/internal/config"
	"photodex/internal/photo"
)

// NewExtractorFromConfig creates a MetadataExtractor based on the
// extractor config type. The returned closer is non-nil only for backends
// holding external resources.
func NewExtractorFromConfig(cfg config.ExtractorConfig) (photo.MetadataExtractor, func() error, error) {
	switch cfg.Type {
	case "", "native":
		return NewNativeExtractor(), nil, nil
	case "exiftool":
		e, err := NewExiftoolExtractor()
		if err != nil {
			return nil, nil, fmt.Errorf("creating exiftool extractor: %w", err)
		}
		return e, e.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown extractor type: %s", cfg.Type)
	}
}
