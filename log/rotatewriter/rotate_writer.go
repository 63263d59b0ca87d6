// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rotatewriter

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
)

type RotateWriter interface {
	io.WriteCloser
	Start() error
}

type Option func(*Writer)

// WithDir sets the directory log files are written to.
func WithDir(dir string) Option {
	return func(w *Writer) { w.dirPath = dir }
}

func WithFileBaseName(name string) Option {
	return func(w *Writer) { w.fileBaseName = name }
}

// WithFileMaxSize sets the size in bytes after which a new file is started.
func WithFileMaxSize(size int64) Option {
	return func(w *Writer) { w.maxFileSize = size }
}

// WithMaxNumberFiles bounds the number of files kept on disk, zero keeps all.
func WithMaxNumberFiles(n int) Option {
	return func(w *Writer) { w.maxNumFiles = n }
}

type Writer struct {
	mu           sync.Mutex
	dirPath      string
	fileBaseName string
	maxFileSize  int64
	maxNumFiles  int
	currentFile  *os.File
	currentSize  int64
}

// New creates a writer that rotates files in a directory. Start must be called before writing.
func New(opts ...Option) (*Writer, error) {
	w := &Writer{
		fileBaseName: "stakepool",
		maxFileSize:  100 * 1024 * 1024,
		maxNumFiles:  10,
	}
	for _, o := range opts {
		o(w)
	}
	if w.dirPath == "" {
		return nil, errors.New("log dir not set")
	}
	if w.maxFileSize <= 0 {
		return nil, errors.New("max file size must be positive")
	}
	return w, nil
}

func (w *Writer) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := os.MkdirAll(w.dirPath, 0o700); err != nil {
		return errors.Wrap(err, "create log dir")
	}
	return errors.Wrap(w.openNextFile(), "open log file")
}

func (w *Writer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.currentFile == nil {
		return 0, io.ErrClosedPipe
	}

	if w.currentSize > 0 && w.currentSize+int64(len(p)) > w.maxFileSize {
		if err := w.rotate(); err != nil {
			return 0, err
		}
	}

	n, err := w.currentFile.Write(p)
	w.currentSize += int64(n)
	return n, err
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.currentFile == nil {
		return nil
	}
	err := w.currentFile.Close()
	w.currentFile = nil
	return err
}

// Name returns the path of the file currently written to.
func (w *Writer) Name() string {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.currentFile == nil {
		return ""
	}
	return w.currentFile.Name()
}

func (w *Writer) openNextFile() error {
	if w.currentFile != nil {
		if err := w.currentFile.Close(); err != nil {
			return err
		}
	}
	w.currentSize = 0

	now := time.Now().UTC()
	filePath := w.fileName(now)
	for {
		if _, err := os.Stat(filePath); err != nil {
			break
		}
		now = now.Add(time.Microsecond)
		filePath = w.fileName(now)
	}

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return err
	}
	w.currentFile = file
	return nil
}

func (w *Writer) fileName(t time.Time) string {
	return filepath.Join(w.dirPath, w.fileBaseName+"-"+t.Format("2006-01-02T15-04-05.000000")+".log")
}

func (w *Writer) rotate() error {
	if err := w.openNextFile(); err != nil {
		return err
	}
	if w.maxNumFiles > 0 {
		return w.deleteOldLogFiles()
	}
	return nil
}

func (w *Writer) deleteOldLogFiles() error {
	files, err := filepath.Glob(filepath.Join(w.dirPath, w.fileBaseName+"-*.log"))
	if err != nil {
		return err
	}

	// names embed the timestamp, so lexical order is oldest first
	sort.Strings(files)

	for i := 0; i < len(files)-w.maxNumFiles; i++ {
		if err := os.Remove(files[i]); err != nil {
			return err
		}
	}
	return nil
}
