package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/felo/vmsg-viewer/internal/db"
	"github.com/felo/vmsg-viewer/internal/metrics"
	"github.com/felo/vmsg-viewer/internal/parser"
	"github.com/felo/vmsg-viewer/internal/scanner"
)

// Indexer handles archive indexing operations
type Indexer struct {
	db          *db.DB
	scanner     *scanner.Scanner
	charset     string
	location    *time.Location
	verbose     bool
	concurrency int // Number of concurrent workers
}

// NewIndexer creates a new indexer for the archive at archivePath
func NewIndexer(database *db.DB, archivePath string, verbose bool) *Indexer {
	return &Indexer{
		db:          database,
		scanner:     scanner.NewScanner(archivePath),
		charset:     "utf-8",
		location:    time.Local,
		verbose:     verbose,
		concurrency: runtime.NumCPU() * 2, // 2x CPUs for I/O parallelism
	}
}

// WithConcurrency sets the number of concurrent workers
func (idx *Indexer) WithConcurrency(workers int) *Indexer {
	if workers < 1 {
		workers = 1
	}
	idx.concurrency = workers
	return idx
}

// WithCharset sets the encoding archive files are decoded from
func (idx *Indexer) WithCharset(charset string) *Indexer {
	idx.charset = charset
	return idx
}

// WithLocation sets the zone used for message dates that carry none
func (idx *Indexer) WithLocation(loc *time.Location) *Indexer {
	if loc != nil {
		idx.location = loc
	}
	return idx
}

// IndexResult contains statistics about an indexing operation
type IndexResult struct {
	TotalFound  int
	NewIndexed  int
	Skipped     int
	Failed      int
	FailedFiles []string
}

// IndexAll scans and indexes all archive files using concurrent workers
func (idx *Indexer) IndexAll(ctx context.Context) (*IndexResult, error) {
	return idx.IndexWithProgress(ctx, nil)
}

// IndexWithProgress indexes all files and reports progress via a callback.
// Cancelling ctx stops handing out new files; files already being parsed
// finish.
func (idx *Indexer) IndexWithProgress(ctx context.Context, progress func(current, total int, filePath string)) (*IndexResult, error) {
	files, err := idx.scanner.Scan()
	if err != nil {
		return nil, fmt.Errorf("failed to scan for files: %w", err)
	}

	result := &IndexResult{
		TotalFound:  len(files),
		FailedFiles: make([]string, 0),
	}

	if idx.verbose {
		slog.Info("found archive files", "count", result.TotalFound, "workers", idx.concurrency)
	}

	fileChan := make(chan scanner.File, len(files))
	resultChan := make(chan indexResult, len(files))

	var wg sync.WaitGroup
	for i := 0; i < idx.concurrency; i++ {
		wg.Add(1)
		go idx.indexWorker(ctx, &wg, fileChan, resultChan)
	}

	for _, file := range files {
		fileChan <- file
	}
	close(fileChan)

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	processedCount := 0
	for res := range resultChan {
		processedCount++
		if progress != nil {
			progress(processedCount, result.TotalFound, res.filePath)
		}
		if idx.verbose && processedCount%10 == 0 {
			slog.Info("indexing progress", "processed", processedCount, "total", result.TotalFound)
		}

		switch res.status {
		case statusIndexed:
			result.NewIndexed++
		case statusSkipped:
			result.Skipped++
		case statusFailed:
			result.Failed++
			result.FailedFiles = append(result.FailedFiles, res.filePath)
		}
	}

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("indexing interrupted: %w", err)
	}

	if idx.verbose {
		slog.Info("indexing complete",
			"new", result.NewIndexed, "skipped", result.Skipped, "failed", result.Failed)
	}

	return result, nil
}

type indexStatus int

const (
	statusIndexed indexStatus = iota
	statusSkipped
	statusFailed
	statusCancelled
)

func (s indexStatus) String() string {
	switch s {
	case statusIndexed:
		return "indexed"
	case statusSkipped:
		return "skipped"
	case statusFailed:
		return "failed"
	default:
		return "cancelled"
	}
}

type indexResult struct {
	filePath string
	status   indexStatus
}

// indexWorker processes files from the file channel
func (idx *Indexer) indexWorker(ctx context.Context, wg *sync.WaitGroup, fileChan <-chan scanner.File, resultChan chan<- indexResult) {
	defer wg.Done()

	for file := range fileChan {
		status := statusCancelled
		if ctx.Err() == nil {
			status = idx.processFile(file)
			metrics.FileIndexed(string(file.Kind), status.String())
		}
		resultChan <- indexResult{
			filePath: file.Path,
			status:   status,
		}
	}
}

// processFile processes a single file and returns its status
func (idx *Indexer) processFile(file scanner.File) indexStatus {
	exists, err := idx.db.FileExists(file.Path)
	if err != nil {
		slog.Error("failed to check if file is indexed", "path", file.Path, "error", err)
		return statusFailed
	}

	if exists {
		return statusSkipped
	}

	absPath := filepath.Join(idx.scanner.GetRootPath(), filepath.FromSlash(file.Path))
	info, err := os.Stat(absPath)
	if err != nil {
		slog.Error("failed to get file info", "path", file.Path, "error", err)
		return statusFailed
	}

	record := &db.File{
		FilePath: file.Path,
		FileSize: info.Size(),
	}

	switch file.Kind {
	case scanner.KindContacts:
		err = idx.indexContacts(absPath, record)
	case scanner.KindMessages:
		err = idx.indexMessages(absPath, record)
	default:
		err = fmt.Errorf("unknown file kind %q", file.Kind)
	}
	if err != nil {
		slog.Error("failed to index file", "path", file.Path, "error", err)
		return statusFailed
	}

	return statusIndexed
}

func (idx *Indexer) indexContacts(absPath string, record *db.File) error {
	start := time.Now()
	contacts, err := parser.ParseVCFFile(absPath, idx.charset)
	if err != nil {
		return err
	}
	metrics.ObserveParse(db.KindContacts, time.Since(start))
	metrics.RecordsParsed(db.KindContacts, len(contacts))

	rows := make([]*db.Contact, 0, len(contacts))
	for _, c := range contacts {
		rows = append(rows, &db.Contact{
			FormattedName: c.FormattedName,
			SortString:    c.SortString,
			Tel:           c.Tel,
		})
	}

	_, err = idx.db.InsertContactsFile(record, rows)
	return err
}

func (idx *Indexer) indexMessages(absPath string, record *db.File) error {
	start := time.Now()
	msgs, err := parser.ParseVMGFile(absPath, idx.charset, idx.location)
	if err != nil {
		return err
	}
	metrics.ObserveParse(db.KindMessages, time.Since(start))
	metrics.RecordsParsed(db.KindMessages, len(msgs))

	rows := make([]*db.Message, 0, len(msgs))
	for _, m := range msgs {
		rows = append(rows, &db.Message{
			Type:      m.Type,
			Box:       m.Box,
			Sender:    m.From,
			Recipient: m.To,
			Partner:   m.Partner(),
			Date:      db.NewNullTime(m.Date),
			Body:      m.Text,
		})
	}

	_, err = idx.db.InsertMessagesFile(record, rows)
	return err
}
