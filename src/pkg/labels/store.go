package labels

import (
	"encoding/json"
	"iter"
	"os"
	"path/filepath"
	"sort"
	"strings"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"

	"mrz-labeler/src/pkg/batch"
)

// Store keeps label records in a single directory.
type Store struct {
	Dir string
}

func NewStore(dirPath string) (store *Store, e *xerr.Error) {
	e = batch.EnsureDirectory(dirPath)
	if e != nil {
		return nil, e
	}
	return &Store{Dir: dirPath}, nil
}

func (s *Store) Path(document string) string {
	return filepath.Join(s.Dir, RecordName(document))
}

/*
Save writes rec as <document>.labels.json. A record is written exactly
once per image; an existing file is overwritten.
*/
func (s *Store) Save(rec Record) (path string, e *xerr.Error) {
	path = s.Path(rec.Document)
	e = batch.SaveJSON(path, rec)
	return path, e
}

// SaveManifest writes fields.json next to the records.
func (s *Store) SaveManifest() (path string, e *xerr.Error) {
	path = filepath.Join(s.Dir, ManifestFileName)
	e = batch.SaveJSON(path, NewManifest())
	return path, e
}

func Load(path string) (rec Record, e *xerr.Error) {
	recordBytes, readErr := os.ReadFile(path)
	if readErr != nil {
		e = xerr.NewError(readErr, "read label record", path)
		return rec, e
	}

	unmarshalErr := json.Unmarshal(recordBytes, &rec)
	if unmarshalErr != nil {
		e = xerr.NewError(unmarshalErr, "unmarshal label record", path)
		return rec, e
	}
	return rec, nil
}

// Entry is one record file found by LoadAll.
type Entry struct {
	Path     string
	Document string
	Record   Record
}

/*
LoadAll lists the record files in dirPath, sorted by name, and returns a
sequence that reads them one at a time. A record that cannot be read or
decoded is yielded with its error and the Entry still names its document,
so the caller can keep going. Files without the record suffix, such as
fields.json, are ignored.
*/
func LoadAll(dirPath string) (records iter.Seq2[Entry, *xerr.Error], e *xerr.Error) {
	dirEntries, readErr := os.ReadDir(dirPath)
	if readErr != nil {
		e = xerr.NewError(readErr, "read labels directory", dirPath)
		return nil, e
	}

	names := make([]string, 0, len(dirEntries))
	for _, dirEntry := range dirEntries {
		if dirEntry.IsDir() || !strings.HasSuffix(dirEntry.Name(), FileSuffix) {
			continue
		}
		names = append(names, dirEntry.Name())
	}
	sort.Strings(names)

	tl.Log(tl.Info1, palette.Cyan, "Found '%d' label records in '%s'", len(names), dirPath)

	records = func(yield func(Entry, *xerr.Error) bool) {
		for _, name := range names {
			document, _ := DocumentName(name)
			entry := Entry{Path: filepath.Join(dirPath, name), Document: document}
			rec, loadErr := Load(entry.Path)
			entry.Record = rec
			if !yield(entry, loadErr) {
				return
			}
		}
	}
	return records, nil
}
