package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/romaneio-sheets/constants"
	"github.com/joseph-ayodele/romaneio-sheets/internal/common"
)

// FromUpload stages uploaded bytes in a private temp dir so the extractor can
// read them by path. The caller must run cleanup once processing is done.
func FromUpload(name string, data []byte) (Source, func(), error) {
	base := filepath.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	if base == "." || base == "/" || base == "" {
		return Source{}, nil, fmt.Errorf("%w: empty file name", common.ErrInvalidInput)
	}
	ext := constants.NormalizeExt(filepath.Ext(base))
	if !AllowedExt(ext) {
		return Source{}, nil, fmt.Errorf("%w: %q", common.ErrUnsupportedFormat, ext)
	}

	dir, err := os.MkdirTemp("", "romaneio-upload-*")
	if err != nil {
		return Source{}, nil, err
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	path := filepath.Join(dir, base)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		cleanup()
		return Source{}, nil, fmt.Errorf("stage upload: %w", err)
	}

	sum := sha256.Sum256(data)
	return Source{
		Name:    base,
		Path:    path,
		Ext:     ext,
		Size:    int64(len(data)),
		HashHex: hex.EncodeToString(sum[:]),
	}, cleanup, nil
}
