package db

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// File kinds as stored in files.kind
const (
	KindContacts = "contacts"
	KindMessages = "messages"
)

// NullTime is a custom type that handles both string and time.Time from SQLite
type NullTime struct {
	Time  time.Time
	Valid bool
}

var timeFormats = []string{
	"2006-01-02 15:04:05.999999999-07:00", // _time_format=sqlite
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05 -0700 MST",
	"2006-01-02 15:04:05.999999999 -0700",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
}

func parseTimeString(v string) (time.Time, error) {
	var t time.Time
	var err error
	for _, format := range timeFormats {
		t, err = time.Parse(format, v)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

// Scan implements sql.Scanner for NullTime
func (nt *NullTime) Scan(value interface{}) error {
	if value == nil {
		nt.Time, nt.Valid = time.Time{}, false
		return nil
	}

	switch v := value.(type) {
	case time.Time:
		nt.Time, nt.Valid = v, true
		return nil
	case string:
		t, err := parseTimeString(v)
		if err != nil {
			return fmt.Errorf("failed to parse time string %q: %w", v, err)
		}
		nt.Time, nt.Valid = t, true
		return nil
	case []byte:
		return nt.Scan(string(v))
	default:
		return fmt.Errorf("unsupported Scan type for NullTime: %T", value)
	}
}

// Value implements driver.Valuer for NullTime
func (nt NullTime) Value() (driver.Value, error) {
	if !nt.Valid {
		return nil, nil
	}
	return nt.Time.UTC(), nil
}

// NewNullTime creates a NullTime from a time.Time
func NewNullTime(t time.Time) NullTime {
	return NullTime{Time: t, Valid: true}
}

// File is an indexed .vcf or .vmg file
type File struct {
	ID          int64
	FilePath    string
	Kind        string
	FileSize    int64
	RecordCount int
	IndexedAt   NullTime
}

// Name returns the last element of the stored path
func (f *File) Name() string {
	if i := strings.LastIndex(f.FilePath, "/"); i >= 0 {
		return f.FilePath[i+1:]
	}
	return f.FilePath
}

const fileColumns = `id, file_path, kind, file_size, record_count, indexed_at`

func scanFile(row interface{ Scan(...interface{}) error }) (*File, error) {
	f := &File{}
	err := row.Scan(&f.ID, &f.FilePath, &f.Kind, &f.FileSize, &f.RecordCount, &f.IndexedAt)
	return f, err
}

// insertFile inserts the file row inside tx
func insertFile(tx *sql.Tx, f *File) (int64, error) {
	result, err := tx.Exec(`
		INSERT INTO files (file_path, kind, file_size, record_count)
		VALUES (?, ?, ?, ?)
	`, f.FilePath, f.Kind, f.FileSize, f.RecordCount)
	if err != nil {
		return 0, fmt.Errorf("failed to insert file: %w", err)
	}
	return result.LastInsertId()
}

// FileExists checks if a file with the given path has been indexed
func (db *DB) FileExists(filePath string) (bool, error) {
	var exists bool
	err := db.QueryRow("SELECT EXISTS(SELECT 1 FROM files WHERE file_path = ?)", filePath).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check file existence: %w", err)
	}
	return exists, nil
}

// FilesExistBatch checks which paths have already been indexed
func (db *DB) FilesExistBatch(filePaths []string) (map[string]bool, error) {
	result := make(map[string]bool, len(filePaths))

	// SQLite limits the number of variables in a query
	const chunkSize = 500
	for i := 0; i < len(filePaths); i += chunkSize {
		end := min(i+chunkSize, len(filePaths))
		if err := db.checkExistenceChunk(filePaths[i:end], result); err != nil {
			return nil, err
		}
	}

	return result, nil
}

func (db *DB) checkExistenceChunk(filePaths []string, result map[string]bool) error {
	if len(filePaths) == 0 {
		return nil
	}

	query := "SELECT file_path FROM files WHERE file_path IN (?" +
		strings.Repeat(",?", len(filePaths)-1) + ")"

	args := make([]interface{}, len(filePaths))
	for i, fp := range filePaths {
		args[i] = fp
		result[fp] = false
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return fmt.Errorf("failed to check file existence: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var filePath string
		if err := rows.Scan(&filePath); err != nil {
			return fmt.Errorf("failed to scan file path: %w", err)
		}
		result[filePath] = true
	}

	return rows.Err()
}

// GetFileByID retrieves a file by its ID
func (db *DB) GetFileByID(id int64) (*File, error) {
	f, err := scanFile(db.QueryRow(`SELECT `+fileColumns+` FROM files WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get file: %w", err)
	}
	return f, nil
}

// ListFiles lists indexed files of the given kind ordered by path.
// An empty kind lists every file.
func (db *DB) ListFiles(kind string) ([]*File, error) {
	query := `SELECT ` + fileColumns + ` FROM files`
	var args []interface{}
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, kind)
	}
	query += ` ORDER BY file_path`

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	defer rows.Close()

	var files []*File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan file: %w", err)
		}
		files = append(files, f)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating files: %w", err)
	}

	return files, nil
}

// DeleteFile removes a file and its records from the index.
// The file itself is NOT deleted from disk.
func (db *DB) DeleteFile(id int64) error {
	result, err := db.Exec("DELETE FROM files WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("file not found")
	}

	return nil
}

// Stats holds database statistics
type Stats struct {
	Files       int
	Contacts    int
	Messages    int
	LastIndexed time.Time
}

// GetStats returns current database statistics
func (db *DB) GetStats() (*Stats, error) {
	stats := &Stats{}

	err := db.QueryRow(`
		SELECT
			(SELECT COUNT(*) FROM files),
			(SELECT COUNT(*) FROM contacts),
			(SELECT COUNT(*) FROM messages)
	`).Scan(&stats.Files, &stats.Contacts, &stats.Messages)
	if err != nil {
		return nil, fmt.Errorf("failed to count records: %w", err)
	}

	var lastIndexed sql.NullString
	err = db.QueryRow("SELECT MAX(indexed_at) FROM files").Scan(&lastIndexed)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to get last indexed time: %w", err)
	}

	if lastIndexed.Valid {
		// Unparseable timestamps leave LastIndexed as zero time
		if t, err := parseTimeString(lastIndexed.String); err == nil {
			stats.LastIndexed = t
		}
	}

	return stats, nil
}
