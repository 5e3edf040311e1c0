// Package levels supplies the scraped level documentation that grounds
// narrative generation for each level.
package levels

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/backroomlabs/backroom-engine/pkg/settle"
)

// Source provides level context documents by level id.
type Source interface {
	// Context returns the level documentation, or "" when the level
	// has no document. Missing content is not an error; the engine
	// proceeds with an empty context.
	Context(levelID string) (string, error)
}

// FSLevels reads level documents from <dir>/levels/<slug>.md, where
// the slug is derived from the level id ("Level 0" -> "level_0").
type FSLevels struct {
	dir    string
	logger *slog.Logger
}

var _ Source = (*FSLevels)(nil)

// NewFSLevels creates a filesystem level source rooted at dataDir.
func NewFSLevels(dataDir string, logger *slog.Logger) *FSLevels {
	return &FSLevels{dir: dataDir, logger: logger}
}

func (f *FSLevels) Context(levelID string) (string, error) {
	slug := settle.Slugify(levelID)
	if slug == "" {
		return "", nil
	}

	path := filepath.Join(f.dir, "levels", slug+".md")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			f.logger.Warn("No level document found", "level", levelID, "path", path)
			return "", nil
		}
		return "", err
	}
	return string(data), nil
}
