// Package source reads and rewrites record collections stored as a JSON
// array or as JSON Lines. Rewrites go to a temp file that is synced and
// renamed over the original.
package source

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mesh-intelligence/datatable/internal/cache"
	"github.com/mesh-intelligence/datatable/internal/fields"
	"github.com/mesh-intelligence/datatable/pkg/types"
)

// maxLine bounds one JSON Lines record.
const maxLine = 4 << 20

// IsLines reports whether path holds JSON Lines, by extension.
func IsLines(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson":
		return true
	default:
		return false
	}
}

// ReadRecords loads every record in path. Blank and malformed JSON Lines
// entries are skipped; a malformed JSON array is an error.
func ReadRecords(path string) ([]types.Record, error) {
	if IsLines(path) {
		return readLines(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return []types.Record{}, nil
	}
	if data[0] != '[' {
		return readLines(path)
	}
	var records []types.Record
	if err := decode(data, &records); err != nil {
		return nil, fmt.Errorf("parse records %s: %w", path, err)
	}
	return dropNil(records), nil
}

func readLines(path string) ([]types.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	defer f.Close()

	records := []types.Record{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec types.Record
		if err := decode(line, &rec); err != nil || rec == nil {
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}
	return records, nil
}

// decode unmarshals one JSON value, keeping numbers as json.Number so large
// integer ids survive unrounded.
func decode(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("invalid character after top-level value")
	}
	return nil
}

func dropNil(records []types.Record) []types.Record {
	out := records[:0]
	for _, r := range records {
		if r != nil {
			out = append(out, r)
		}
	}
	if out == nil {
		return []types.Record{}
	}
	return out
}

// WriteRecords atomically replaces path with records, keeping the format
// implied by its extension.
func WriteRecords(path string, records []types.Record) error {
	var buf bytes.Buffer
	if IsLines(path) {
		enc := json.NewEncoder(&buf)
		for _, rec := range records {
			if err := enc.Encode(rec); err != nil {
				return fmt.Errorf("encode record: %w", err)
			}
		}
	} else {
		if records == nil {
			records = []types.Record{}
		}
		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return fmt.Errorf("encode records: %w", err)
		}
		buf.Write(data)
		buf.WriteByte('\n')
	}
	return writeAtomic(path, buf.Bytes())
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".records-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing records: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// DeleteIDs removes the records whose id is in ids and returns how many were
// removed. The file is left untouched when nothing matches.
func DeleteIDs(path, idField string, ids []string) (int, error) {
	records, err := ReadRecords(path)
	if err != nil {
		return 0, err
	}
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := make([]types.Record, 0, len(records))
	for _, rec := range records {
		if !drop[fields.ID(rec, idField)] {
			kept = append(kept, rec)
		}
	}
	removed := len(records) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	if err := WriteRecords(path, kept); err != nil {
		return 0, err
	}
	return removed, nil
}

// Fetcher returns a cache fetch function that reads path on every miss.
func Fetcher(path string) cache.FetchFunc {
	return func(ctx context.Context, _ string) (any, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return ReadRecords(path)
	}
}
