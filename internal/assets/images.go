package assets

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nasmon/nasmon-agent/internal/domain"
)

// imageExtensions are the suffixes (lowercased) treated as images.
var imageExtensions = map[string]struct{}{
	".gif":  {},
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".bmp":  {},
	".webp": {},
}

// ListImages scans dir for image files and returns their names in
// lexicographic order. A read failure is captured in the listing's Error
// field rather than returned; callers always get a well-formed listing.
func ListImages(dir string) domain.ImageFileListing {
	listing := domain.ImageFileListing{
		Files:     []string{},
		Directory: dir,
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		listing.Error = err.Error()
		return listing
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if _, ok := imageExtensions[ext]; ok {
			listing.Files = append(listing.Files, entry.Name())
		}
	}

	sort.Strings(listing.Files)
	listing.Count = len(listing.Files)
	return listing
}
