// Package journal persists remediation decisions as JSON lines for
// offline review. It is write-only from the decision path: nothing in
// detection or redirection ever reads a record back.
package journal

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dgnsrekt/webview_escape/internal/escape"
	"github.com/google/uuid"
	"gopkg.in/natefinch/lumberjack.v2"
)

// DecisionRecord is one journaled remediation pass.
type DecisionRecord struct {
	ID        string    `json:"id"`
	Time      time.Time `json:"time"`
	UserAgent string    `json:"user_agent"`
	URL       string    `json:"url"`
	Matches   []string  `json:"matches"`
	Action    string    `json:"action"`
	App       string    `json:"app,omitempty"`
	Step      string    `json:"step,omitempty"`
	Handled   bool      `json:"handled"`
}

// Writer appends decision records asynchronously to date-organized JSONL
// files with size rotation.
type Writer struct {
	baseDir   string
	maxSizeMB int

	writeCh chan DecisionRecord
	done    chan struct{}
	wg      sync.WaitGroup

	mu          sync.Mutex
	currentDate string
	logger      *lumberjack.Logger
}

// NewWriter creates a journal writer rooted at baseDir.
func NewWriter(baseDir string, bufferSize, maxSizeMB int) *Writer {
	w := &Writer{
		baseDir:   baseDir,
		maxSizeMB: maxSizeMB,
		writeCh:   make(chan DecisionRecord, bufferSize),
		done:      make(chan struct{}),
	}
	w.wg.Add(1)
	go w.writeLoop()
	return w
}

// Record converts a pass result into a record and queues it. A full
// buffer drops the record rather than blocking the decision path.
func (w *Writer) Record(res escape.Result) {
	rec := DecisionRecord{
		ID:        uuid.NewString(),
		Time:      time.Now().UTC(),
		UserAgent: res.UserAgent,
		URL:       res.URL,
		Action:    string(res.Decision.Kind),
		App:       string(res.Decision.App),
		Step:      res.Step,
		Handled:   res.Handled,
	}
	for _, m := range res.Matches {
		rec.Matches = append(rec.Matches, string(m))
	}

	select {
	case w.writeCh <- rec:
	case <-w.done:
	default:
		slog.Warn("journal buffer full, dropping record", "action", rec.Action)
	}
}

// Close shuts down the writer and flushes pending records.
func (w *Writer) Close() error {
	close(w.done)

	timeout := time.After(5 * time.Second)
	for {
		select {
		case rec := <-w.writeCh:
			w.writeRecord(rec)
		case <-timeout:
			slog.Warn("journal close timeout, some records may be lost")
			goto done
		default:
			goto done
		}
	}

done:
	w.wg.Wait()

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.logger != nil {
		return w.logger.Close()
	}
	return nil
}

func (w *Writer) writeLoop() {
	defer w.wg.Done()
	for {
		select {
		case rec := <-w.writeCh:
			w.writeRecord(rec)
		case <-w.done:
			return
		}
	}
}

func (w *Writer) writeRecord(rec DecisionRecord) {
	data, err := json.Marshal(rec)
	if err != nil {
		slog.Error("journal marshal failed", "error", err)
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	currentDate := time.Now().UTC().Format("2006-01-02")
	if w.logger == nil || currentDate != w.currentDate {
		w.rotateForDate(currentDate)
	}
	if w.logger == nil {
		return
	}

	if _, err := w.logger.Write(append(data, '\n')); err != nil {
		slog.Error("journal write failed", "error", err)
	}
}

func (w *Writer) rotateForDate(date string) {
	if w.logger != nil {
		if err := w.logger.Close(); err != nil {
			slog.Debug("journal close previous file failed", "error", err)
		}
	}

	dir := filepath.Join(w.baseDir, date)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		slog.Error("journal create directory failed", "error", err, "dir", dir)
		w.logger = nil
		return
	}

	w.logger = &lumberjack.Logger{
		Filename:   filepath.Join(dir, fmt.Sprintf("decisions-%d.jsonl", time.Now().Unix())),
		MaxSize:    w.maxSizeMB,
		MaxBackups: 100,
		MaxAge:     30,
		LocalTime:  false,
	}
	w.currentDate = date
	slog.Info("journal file opened", "file", w.logger.Filename)
}
