package gallery

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Save writes a processed JPEG into slot of folder under root, the
// directory that holds assets/. It returns the slash separated path of the
// new image.
func Save(root, folder string, slot int, data []byte) (string, error) {
	if !ValidFolder(folder) {
		return "", fmt.Errorf("invalid image folder %q", folder)
	}
	if slot < 1 || slot > MaxSlots {
		return "", fmt.Errorf("image slot %d out of range", slot)
	}

	rel := SlotPath(folder, slot, "jpg")
	dst := filepath.Join(root, filepath.FromSlash(rel))
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}

	tmp := filepath.Join(dir, ".upload-"+uuid.NewString())
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("writing image: %w", err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("saving image: %w", err)
	}
	return rel, nil
}
