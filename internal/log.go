package internal

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mahlburgc/serialmon/events"
)

const (
	logPrefix = "serialmon_"
	logSuffix = ".log"
)

// StartLogger opens a dated debug log in <dir>/logs when enabled by the
// SERIALMON_LOG environment variable or the config. Otherwise log output is
// discarded so it cannot corrupt the terminal. Logs older than retentionDays
// are removed.
func StartLogger(dir string, enabled bool, retentionDays int) *os.File {
	if !enabled && len(os.Getenv("SERIALMON_LOG")) == 0 {
		log.SetOutput(io.Discard)
		return nil
	}

	logDir := filepath.Join(dir, "logs")
	if err := os.MkdirAll(logDir, os.ModePerm); err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}

	now := time.Now()
	pruneLogs(logDir, retentionDays, now)

	name := filepath.Join(logDir, logPrefix+now.Format("2006-01-02_15-04")+logSuffix)
	logfile, err := tea.LogToFile(name, "debug")
	if err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}
	return logfile
}

// pruneLogs removes debug logs last modified more than retentionDays ago.
func pruneLogs(logDir string, retentionDays int, now time.Time) {
	entries, err := os.ReadDir(logDir)
	if err != nil {
		return
	}

	cutoff := now.AddDate(0, 0, -retentionDays)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, logPrefix) || !strings.HasSuffix(name, logSuffix) {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(logDir, name)); err != nil {
			log.Printf("remove old log %s: %v", name, err)
		}
	}
}

// Log messsage type to debug file
func LogMsgType(msg any) {
	switch msg := msg.(type) {
	case cursor.BlinkMsg, spinner.TickMsg, events.SerialRxMsg, tea.MouseMsg:
		// avoid logging on spamming messages
	default:
		log.Printf("Update Msg: Type: %T Value: %v\n", msg, msg)
	}
}
