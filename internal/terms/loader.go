package terms

import (
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// ParseDocument decodes one dictionary document from r. Unknown fields are
// rejected to catch dictionary typos early.
func ParseDocument(r io.Reader) (Document, error) {
	var doc Document
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("terms: decode dictionary json: %w", err)
	}
	return doc, nil
}

// LoadFile reads and parses a single dictionary JSON file.
func LoadFile(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("terms: open dictionary %q: %w", path, err)
	}
	defer f.Close()

	doc, err := ParseDocument(f)
	if err != nil {
		return Document{}, fmt.Errorf("terms: parse dictionary %q: %w", path, err)
	}
	return doc, nil
}

// LoadDir loads every *.json dictionary under dir (sorted by file name for
// deterministic merge order) and builds a [Store] from them. A missing or
// empty directory yields an error: a correction run without a dictionary is
// a configuration mistake, not a silent no-op.
func LoadDir(dir string) (*Store, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("terms: read dictionary dir %q: %w", dir, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)

	if len(paths) == 0 {
		return nil, fmt.Errorf("terms: no dictionary files in %q: %w", dir, fs.ErrNotExist)
	}

	docs := make([]Document, 0, len(paths))
	for _, p := range paths {
		doc, err := LoadFile(p)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	return Build(docs...)
}
