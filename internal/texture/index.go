package texture

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Formats with an alpha channel win over opaque ones for the same stem.
var extRank = map[string]int{
	".png":  3,
	".tga":  3,
	".tif":  2,
	".tiff": 2,
	".gif":  2,
	".jpg":  1,
	".jpeg": 1,
	".bmp":  1,
}

// Index finds texture files by name when the path stored in a scene
// description does not exist on this machine.
type Index struct {
	byStem map[string]string
}

func stemOf(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	return strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
}

func rankOf(path string) int {
	return extRank[strings.ToLower(filepath.Ext(path))]
}

// BuildIndex walks every directory in dirs. Unreadable entries are skipped.
func BuildIndex(dirs ...string) *Index {
	idx := &Index{byStem: make(map[string]string)}
	for _, dir := range dirs {
		_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil
			}
			r := rankOf(path)
			if r == 0 {
				return nil
			}
			stem := stemOf(path)
			if prev, ok := idx.byStem[stem]; !ok || r > rankOf(prev) {
				idx.byStem[stem] = path
			}
			return nil
		})
	}
	return idx
}

// ResolvePath maps a texture reference to a file. A reference naming an
// existing file is returned as is; otherwise its case-folded stem is looked
// up, so "Maps\\Wood.jpg" can resolve to ".../wood.png".
func (idx *Index) ResolvePath(ref string) (string, bool) {
	if info, err := os.Stat(ref); err == nil && !info.IsDir() {
		return ref, true
	}
	path, ok := idx.byStem[stemOf(ref)]
	return path, ok
}

func (idx *Index) Len() int { return len(idx.byStem) }
