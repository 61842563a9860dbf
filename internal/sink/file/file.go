// Package file writes each flattened record to <dir>/<Username>.json.
package file

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"

	"userflat/internal/sink"
	"userflat/internal/userrecord/models"
)

// Indent is the indentation used for written records.
const Indent = "    "

// Sink stores one JSON document per user.
type Sink struct {
	dir string
}

// New creates dir if needed.
func New(dir string) (*Sink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create sink dir: %w", err)
	}
	return &Sink{dir: dir}, nil
}

func (s *Sink) Name() string { return "file" }

// Path returns where the record for username is written. The username is
// path-escaped so it can never leave dir.
func (s *Sink) Path(username string) string {
	return filepath.Join(s.dir, url.PathEscape(username)+".json")
}

// Publish replaces the user's file atomically.
func (s *Sink) Publish(ctx context.Context, record *models.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	username, err := sink.Key(record)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, ".userflat-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Encode(tmp, record); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path(username)); err != nil {
		return fmt.Errorf("rename record file: %w", err)
	}
	return nil
}

// Load reads a previously published record.
func (s *Sink) Load(username string) (*models.Record, error) {
	data, err := os.ReadFile(s.Path(username))
	if err != nil {
		return nil, fmt.Errorf("read record file: %w", err)
	}
	rec := models.NewRecord()
	if err := rec.UnmarshalJSON(data); err != nil {
		return nil, fmt.Errorf("decode record file: %w", err)
	}
	return rec, nil
}

// Encode writes record as four-space indented JSON followed by a newline.
func Encode(w io.Writer, record *models.Record) error {
	raw, err := record.MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", Indent); err != nil {
		return fmt.Errorf("indent record: %w", err)
	}
	buf.WriteByte('\n')
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}
