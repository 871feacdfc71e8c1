package picture

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Store сохраняет загруженные изображения на диске и отдает публичные URL.
// Имена файлов генерируются случайно, клиентское имя не используется.
type Store struct {
	dir     string
	baseURL string
}

// NewStore создает хранилище изображений в каталоге dir
func NewStore(dir, baseURL string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir %s: %w", dir, err)
	}
	return &Store{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Save записывает изображение и возвращает его URL
func (s *Store) Save(data []byte, ext string) (string, error) {
	if !validExt(ext) {
		return "", fmt.Errorf("unsupported image extension %q", ext)
	}

	name := uuid.New().String() + "." + strings.ToLower(ext)
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write image %s: %w", path, err)
	}
	return s.baseURL + "/" + name, nil
}

// validExt отсекает расширения, способные выйти за пределы каталога
func validExt(ext string) bool {
	if ext == "" || len(ext) > 8 {
		return false
	}
	for _, r := range ext {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if !isAlnum {
			return false
		}
	}
	return true
}
