package content

import (
	"context"
	"fmt"
	"os"

	"bulkmart/internal/model"

	"github.com/rs/zerolog"
)

// fileLoader implements Loader for documents on local disk.
type fileLoader struct {
	logger zerolog.Logger
}

// NewFileLoader creates a file-based content loader.
func NewFileLoader(logger zerolog.Logger) Loader {
	return &fileLoader{
		logger: logger.With().Str("component", "content-loader").Logger(),
	}
}

// Load reads a JSON or gzipped JSON content document.
func (l *fileLoader) Load(ctx context.Context, filePath string) (*model.HomeContent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(filePath)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("failed to open content file")
		return nil, fmt.Errorf("failed to open content file %s: %w", filePath, err)
	}
	defer file.Close()

	hc, err := decode(file)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("failed to read content file")
		return nil, fmt.Errorf("failed to read content file %s: %w", filePath, err)
	}

	l.logger.Info().
		Str("file", filePath).
		Int("banners", len(hc.Banners)).
		Msg("home content loaded")

	return hc, nil
}
