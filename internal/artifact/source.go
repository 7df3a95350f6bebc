package artifact

import (
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/zeebo/blake3"
)

// Kind names the variant of a Source.
type Kind string

const (
	KindRemote Kind = "remote"
	KindUpload Kind = "upload"
)

// Source is the active origin of artifact bytes: a Remote or an *Upload.
type Source interface {
	Kind() Kind
}

// Remote fetches artifacts from Base through Fetcher.
type Remote struct {
	Fetcher Fetcher
	Base    string
	// Discovered is false when root discovery found no candidate and Base
	// is only the default guess.
	Discovered bool
}

func (Remote) Kind() Kind { return KindRemote }

// Ref returns the fetcher reference for a logical path under Base.
func (r Remote) Ref(path string) string {
	path = strings.TrimPrefix(toSlash(path), "/")
	if r.Base == "" {
		return path
	}
	return strings.TrimSuffix(r.Base, "/") + "/" + path
}

// File is one uploaded file.
type File struct {
	Path string // relative path as reported by the client
	Data []byte
}

type uploadEntry struct {
	file *File
	rank int
}

// Upload is a set of files selected from a local folder, indexed under
// several spellings of each relative path.
type Upload struct {
	index       map[string]uploadEntry
	files       []*File
	fingerprint string
}

func (*Upload) Kind() Kind { return KindUpload }

// NewUpload indexes files. When two files claim the same key the more
// specific registration wins; between equally specific ones the later file
// wins.
func NewUpload(files []File) *Upload {
	u := &Upload{index: make(map[string]uploadEntry, len(files)*4)}
	for i := range files {
		f := &File{Path: files[i].Path, Data: files[i].Data}
		u.files = append(u.files, f)
		for rank, key := range uploadKeys(f.Path) {
			if prev, ok := u.index[key]; ok && prev.rank < rank {
				continue
			}
			u.index[key] = uploadEntry{file: f, rank: rank}
		}
	}
	u.fingerprint = fingerprint(u.files)
	return u
}

// LoadDir reads every regular file under dir into an Upload. Relative paths
// are prefixed with the directory's own name, the way a browser reports a
// selected folder.
func LoadDir(dir string) (*Upload, error) {
	root := filepath.Base(filepath.Clean(dir))
	var files []File
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}
		files = append(files, File{Path: root + "/" + filepath.ToSlash(rel), Data: data})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load dir: %w", err)
	}
	return NewUpload(files), nil
}

// Len is the number of uploaded files.
func (u *Upload) Len() int {
	if u == nil {
		return 0
	}
	return len(u.files)
}

// Fingerprint is a content hash over all uploaded paths and bytes.
func (u *Upload) Fingerprint() string {
	if u == nil {
		return ""
	}
	return u.fingerprint
}

// Has reports whether key is registered exactly as given.
func (u *Upload) Has(key string) bool {
	if u == nil {
		return false
	}
	_, ok := u.index[key]
	return ok
}

// Lookup finds the file for a logical path by trying PathVariants in order.
func (u *Upload) Lookup(path, base string) (*File, bool) {
	if u.Len() == 0 {
		return nil, false
	}
	for _, key := range PathVariants(path, base) {
		if e, ok := u.index[key]; ok {
			return e.file, true
		}
	}
	return nil, false
}

func fingerprint(files []*File) string {
	sorted := make([]*File, len(files))
	copy(sorted, files)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	h := blake3.New()
	for _, f := range sorted {
		fmt.Fprintf(h, "%s\x00%d\x00", f.Path, len(f.Data))
		h.Write(f.Data)
	}
	return hex.EncodeToString(h.Sum(nil)[:16])
}
