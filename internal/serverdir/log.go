package serverdir

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/term"

	"mcpadre.dev/mcpadre/internal/dirs"
)

// MaxServerLogSize triggers rotation past 10MB, generalized to mcpadre's
// per-server logs from a single flat log-size bound.
const MaxServerLogSize = 10 * 1024 * 1024

// ServerLog is the rotating, structured per-runner JSONL log, written to
// <root>/logs/<name>__<ISO8601>.jsonl. Once a log file crosses
// MaxServerLogSize it is closed, zstd-compressed in place, and a fresh file
// is opened (see DESIGN.md for the rotation/compression scheme).
type ServerLog struct {
	dir        Dir
	serverName string
	file       *os.File
	path       string
	written    int64
}

// NewServerLog opens a new collision-resistant log file for serverName:
// <name>__<ISO8601>-<uuid4>.jsonl, guaranteeing distinct filenames across
// rapid invocations even at identical timestamps.
func NewServerLog(dir Dir, serverName string) (*ServerLog, error) {
	sl := &ServerLog{dir: dir, serverName: serverName}
	if err := sl.open(); err != nil {
		return nil, err
	}
	return sl, nil
}

func (sl *ServerLog) open() error {
	ts := time.Now().Format("20060102T150405Z0700")
	name := fmt.Sprintf("%s__%s-%s.jsonl", sl.serverName, ts, uuid.NewString())
	path := filepath.Join(sl.dir.LogsDir, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("serverdir: open log %s: %w", path, err)
	}
	sl.file = f
	sl.path = path
	sl.written = 0
	return nil
}

// Write implements io.Writer, rotating (closing, compressing, reopening)
// once the current file exceeds MaxServerLogSize.
func (sl *ServerLog) Write(p []byte) (int, error) {
	n, err := sl.file.Write(p)
	sl.written += int64(n)
	if err != nil {
		return n, err
	}
	if sl.written >= MaxServerLogSize {
		if rerr := sl.rotate(); rerr != nil {
			return n, rerr
		}
	}
	return n, nil
}

func (sl *ServerLog) rotate() error {
	closedPath := sl.path
	if err := sl.file.Close(); err != nil {
		return fmt.Errorf("serverdir: close %s for rotation: %w", closedPath, err)
	}
	if err := compressToZstd(closedPath); err != nil {
		return err
	}
	return sl.open()
}

func compressToZstd(path string) error {
	in, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("serverdir: reopen %s for compression: %w", path, err)
	}
	defer in.Close()

	out, err := os.Create(path + ".zst")
	if err != nil {
		return fmt.Errorf("serverdir: create %s.zst: %w", path, err)
	}
	defer out.Close()

	enc, err := zstd.NewWriter(out)
	if err != nil {
		return fmt.Errorf("serverdir: new zstd writer: %w", err)
	}
	if _, err := io.Copy(enc, in); err != nil {
		enc.Close()
		return fmt.Errorf("serverdir: compress %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("serverdir: finalize %s.zst: %w", path, err)
	}
	return os.Remove(path)
}

// Close closes the underlying file without compressing it — the live log
// stays readable as plain JSONL; only rotated-out files are compressed.
func (sl *ServerLog) Close() error {
	if sl.file == nil {
		return nil
	}
	return sl.file.Close()
}

// InfraWriter returns the infrastructure-log destination: stderr when it is
// a TTY, otherwise a JSONL file at
// <workspace>/.mcpadre/logs/<name>_<ISO8601>.log.
func InfraWriter(workspaceRoot, serverName string) (io.WriteCloser, error) {
	if term.IsTerminal(int(os.Stderr.Fd())) {
		return nopCloser{os.Stderr}, nil
	}

	logsDir := filepath.Join(workspaceRoot, dirs.StateRoot, dirs.LogsDir)
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return nil, fmt.Errorf("serverdir: create %s: %w", logsDir, err)
	}

	ts := time.Now().Format("20060102T150405Z0700")
	path := filepath.Join(logsDir, fmt.Sprintf("%s_%s.log", serverName, ts))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("serverdir: open %s: %w", path, err)
	}
	return f, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
