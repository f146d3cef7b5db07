// Package gguf reads header metadata from GGUF model files.
package gguf

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ggufparser "github.com/gpustack/gguf-parser-go"
)

// Ext is the GGUF file extension.
const Ext = ".gguf"

// Info is the subset of GGUF header metadata surfaced in listings.
type Info struct {
	Architecture string
	Name         string
	Quantization string
	Parameters   uint64
	FileSize     uint64
}

// IsGGUFName reports whether name ends in .gguf, ignoring case.
func IsGGUFName(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), Ext)
}

// SelectFile returns the first GGUF name in files, in the given order.
func SelectFile(files []string) (string, bool) {
	for _, f := range files {
		if IsGGUFName(f) {
			return f, true
		}
	}
	return "", false
}

// FindFile resolves path to a GGUF file. A file path is returned as is; for
// a directory the lexically first .gguf file inside it is returned.
func FindFile(path string) (string, error) {
	st, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if !st.IsDir() {
		return path, nil
	}
	var found []string
	err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && IsGGUFName(d.Name()) {
			found = append(found, p)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if len(found) == 0 {
		return "", fmt.Errorf("no %s file under %s", Ext, path)
	}
	sort.Strings(found)
	return found[0], nil
}

// Probe parses the header of the GGUF file at path.
func Probe(path string) (Info, error) {
	f, err := ggufparser.ParseGGUFFile(path)
	if err != nil {
		return Info{}, fmt.Errorf("parse gguf %s: %w", path, err)
	}
	md := f.Metadata()
	return Info{
		Architecture: md.Architecture,
		Name:         md.Name,
		Quantization: md.FileTypeDescriptor,
		Parameters:   uint64(md.Parameters),
		FileSize:     uint64(md.FileSize),
	}, nil
}
