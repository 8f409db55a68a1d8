// Package journal appends transfer notifications to a line-delimited JSON
// file. It is an outbound notification channel; nothing reads it back into
// account state.
package journal

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/jbarros93/dws-challenge/internal/domain"
	"github.com/jbarros93/dws-challenge/internal/telemetry"
)

// Journal provides append-only storage for notifications
type Journal struct {
	filePath string
	file     *os.File
	mu       sync.Mutex
	sync     bool
}

// Option configures a Journal.
type Option func(*Journal)

// WithSync forces an fsync after every append.
func WithSync() Option {
	return func(j *Journal) { j.sync = true }
}

// Open opens (or creates) the journal at filePath for appending
func Open(filePath string, opts ...Option) (*Journal, error) {
	file, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal file: %w", err)
	}

	j := &Journal{
		filePath: filePath,
		file:     file,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j, nil
}

// Notify appends n to the journal. It implements notify.Sink.
func (j *Journal) Notify(_ context.Context, n domain.Notification) error {
	start := time.Now()
	defer func() { telemetry.JournalWriteDuration.Observe(time.Since(start).Seconds()) }()

	data, err := domain.SerializeNotification(n)
	if err != nil {
		return fmt.Errorf("failed to serialize notification: %w", err)
	}
	data = append(data, '\n')

	j.mu.Lock()
	defer j.mu.Unlock()

	if j.file == nil {
		return fmt.Errorf("journal %s is closed", j.filePath)
	}
	if _, err := j.file.Write(data); err != nil {
		return fmt.Errorf("failed to write notification: %w", err)
	}
	if j.sync {
		if err := j.file.Sync(); err != nil {
			return fmt.Errorf("failed to sync journal: %w", err)
		}
	}
	return nil
}

// LoadAll reads every notification from the journal file
func (j *Journal) LoadAll() ([]domain.Notification, error) {
	file, err := os.Open(j.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.Notification{}, nil
		}
		return nil, fmt.Errorf("failed to open journal for reading: %w", err)
	}
	defer file.Close()

	notifications := []domain.Notification{}
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		n, err := domain.DeserializeNotification(line)
		if err != nil {
			return nil, fmt.Errorf("failed to decode notification at line %d: %w", lineNum, err)
		}
		notifications = append(notifications, n)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading journal: %w", err)
	}
	return notifications, nil
}

// Close closes the journal file
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.file == nil {
		return nil
	}
	err := j.file.Close()
	j.file = nil
	return err
}
