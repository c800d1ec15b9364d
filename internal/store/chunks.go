package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ChunkWriter persists drained event batches as numbered JSON chunk
// files under a per-session subfolder. It satisfies the recording
// EventSink interface; persistence is deliberately a host concern kept
// out of the bridge itself.
type ChunkWriter struct {
	mu     sync.Mutex
	dir    string
	files  int
	events int
}

// NewChunkWriter creates a timestamped session subfolder under baseDir.
func NewChunkWriter(baseDir string) (*ChunkWriter, error) {
	name := fmt.Sprintf("recording-%s-%s",
		time.Now().UTC().Format("20060102-150405"),
		uuid.NewString()[:8])
	dir := filepath.Join(baseDir, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create session directory: %w", err)
	}
	return &ChunkWriter{dir: dir}, nil
}

// WriteEvents writes one batch as the next numbered chunk file. Empty
// batches produce no file.
func (w *ChunkWriter) WriteEvents(events []json.RawMessage) error {
	if len(events) == 0 {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	data, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("encode chunk: %w", err)
	}

	path := filepath.Join(w.dir, fmt.Sprintf("%06d.json", w.files))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write chunk: %w", err)
	}

	w.files++
	w.events += len(events)
	return nil
}

// Dir returns the session subfolder path.
func (w *ChunkWriter) Dir() string {
	return w.dir
}

// FileCount returns the number of chunk files written.
func (w *ChunkWriter) FileCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.files
}

// EventCount returns the total events persisted across chunks.
func (w *ChunkWriter) EventCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.events
}
