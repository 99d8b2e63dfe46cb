package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var (
	mu      sync.Mutex
	logFile *os.File
	debug   bool
)

// Init routes the standard logger to stdout and, when logPath is set, to an
// append-only log file as well.
func Init(logPath string, debugMode bool) error {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
	debug = debugMode

	writers := []io.Writer{os.Stdout}
	if logPath != "" {
		if dir := filepath.Dir(logPath); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		logFile = file
		writers = append(writers, logFile)
	}

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.SetOutput(io.MultiWriter(writers...))
	if debug {
		log.Println("Service starting in DEBUG mode")
	}
	return nil
}

// Quiet stops console output for full-screen terminal use. An open log
// file keeps receiving entries.
func Quiet() {
	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		log.SetOutput(logFile)
		return
	}
	log.SetOutput(io.Discard)
}

func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if logFile == nil {
		return nil
	}
	log.SetOutput(os.Stderr)
	err := logFile.Close()
	logFile = nil
	return err
}

// Debugf logs only when Init was called with debug enabled.
func Debugf(format string, args ...any) {
	mu.Lock()
	enabled := debug
	mu.Unlock()
	if !enabled {
		return
	}
	_ = log.Output(2, "[DEBUG] "+fmt.Sprintf(format, args...))
}

// Preview shortens text for log lines.
func Preview(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if limit <= 0 || len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}
