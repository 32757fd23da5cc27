package models

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/afero"
)

var ledgerHeader = []string{"PlexPath", "ImgurLink", "DeleteHash", "DateAdded", "Height", "Width"}

// CSVLedger stores poster entries in a flat append-only CSV file
type CSVLedger struct {
	fs   afero.Fs
	path string
}

// NewCSVLedger opens the ledger at path, writing the header if the file is new
func NewCSVLedger(fs afero.Fs, path string) (*CSVLedger, error) {
	l := &CSVLedger{fs: fs, path: path}

	exists, err := afero.Exists(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat ledger: %w", err)
	}
	if !exists {
		if err := l.writeRow(ledgerHeader); err != nil {
			return nil, fmt.Errorf("failed to create ledger: %w", err)
		}
	}

	return l, nil
}

// Entries reads the full ledger
func (l *CSVLedger) Entries() ([]PosterCacheEntry, error) {
	file, err := l.fs.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	var entries []PosterCacheEntry
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read ledger: %w", err)
		}
		if len(record) < len(ledgerHeader) || record[0] == ledgerHeader[0] {
			continue
		}
		entries = append(entries, parseLedgerRow(record))
	}

	return entries, nil
}

// Get returns the entry recorded for sourceKey
func (l *CSVLedger) Get(sourceKey string) (*PosterCacheEntry, error) {
	entries, err := l.Entries()
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].SourceKey == sourceKey {
			return &entries[i], nil
		}
	}
	return nil, ErrEntryNotFound
}

// Add appends a new entry
func (l *CSVLedger) Add(entry *PosterCacheEntry) error {
	if _, err := l.Get(entry.SourceKey); err == nil {
		return ErrEntryExists
	} else if !errors.Is(err, ErrEntryNotFound) {
		return err
	}

	return l.writeRow([]string{
		entry.SourceKey,
		entry.MirroredURL,
		entry.DeleteToken,
		entry.DateAdded.UTC().Format(time.RFC3339),
		strconv.Itoa(entry.Height),
		strconv.Itoa(entry.Width),
	})
}

// Close is a no-op; every write is flushed immediately
func (l *CSVLedger) Close() error {
	return nil
}

func (l *CSVLedger) writeRow(row []string) error {
	file, err := l.fs.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(file)
	if err := writer.Write(row); err != nil {
		file.Close()
		return err
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		file.Close()
		return err
	}

	return file.Close()
}

func parseLedgerRow(record []string) PosterCacheEntry {
	entry := PosterCacheEntry{
		SourceKey:   record[0],
		MirroredURL: record[1],
		DeleteToken: record[2],
	}
	if t, err := time.Parse(time.RFC3339, record[3]); err == nil {
		entry.DateAdded = t
	}
	entry.Height, _ = strconv.Atoi(record[4])
	entry.Width, _ = strconv.Atoi(record[5])
	return entry
}
