package application

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/JonMunkholm/beb64/internal/codec"
	"github.com/JonMunkholm/beb64/internal/sniff"
	"github.com/JonMunkholm/beb64/internal/transcode"
	tea "github.com/charmbracelet/bubbletea"
)

// StatusTimeout is how long a status line stays visible.
const StatusTimeout = 4 * time.Second

// FileJobTimeout bounds a single file transcode from the terminal.
var FileJobTimeout = 30 * time.Minute

type (
	// DoneMsg reports a finished action with a status line.
	DoneMsg string

	// ErrMsg reports a failed action.
	ErrMsg struct{ Err error }

	textResultMsg struct {
		output string
		status string
	}

	progressMsg float64

	fileDoneMsg struct {
		outPath string
		stats   transcode.Stats
		err     error
	}

	clearStatusMsg int
)

func clearStatusAfter(seq int) tea.Cmd {
	return tea.Tick(StatusTimeout, func(time.Time) tea.Msg {
		return clearStatusMsg(seq)
	})
}

func encodeTextCmd(text string) tea.Cmd {
	return func() tea.Msg {
		out := codec.EncodeString(text)
		return textResultMsg{
			output: out,
			status: fmt.Sprintf("Encoded %d bytes to %d characters", len(text), len(out)),
		}
	}
}

func decodeTextCmd(input string, mode transcode.Mode, log *slog.Logger) tea.Cmd {
	return func() tea.Msg {
		if codec.StripWhitespace(input) == "" {
			return ErrMsg{Err: codec.Empty()}
		}
		data, stats, err := transcode.DecodeString(context.Background(), input, transcode.Options{
			Mode:        mode,
			RequireText: true,
			Logger:      log,
		})
		if err != nil {
			return ErrMsg{Err: err}
		}

		status := fmt.Sprintf("Decoded %d bytes", stats.BytesWritten)
		if stats.InvalidBytes > 0 {
			status += fmt.Sprintf(" (skipped %d invalid characters)", stats.InvalidBytes)
		}
		return textResultMsg{output: string(data), status: status}
	}
}

// fileJob runs a file transcode in the background and reports through ch.
// Progress is dropped when the UI is behind; the final fileDoneMsg is not.
type fileJob struct {
	ch     chan tea.Msg
	cancel context.CancelFunc
}

func startFileJob(encode bool, inPath string, mode transcode.Mode, log *slog.Logger) (*fileJob, error) {
	info, err := os.Stat(inPath)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s is not a regular file", inPath)
	}

	outPath := filepath.Join(filepath.Dir(inPath), outputName(encode, inPath, log))

	ctx, cancel := context.WithTimeout(context.Background(), FileJobTimeout)
	job := &fileJob{ch: make(chan tea.Msg, 8), cancel: cancel}

	opts := transcode.Options{
		Mode:   mode,
		Logger: log,
		Progress: func(pct float64) {
			select {
			case job.ch <- progressMsg(pct):
			default:
			}
		},
	}

	go func() {
		defer cancel()
		run := transcode.DecodeFile
		if encode {
			run = transcode.EncodeFile
		}
		stats, err := run(ctx, inPath, outPath, opts)
		if err != nil {
			os.Remove(outPath + transcode.PartialSuffix)
		}
		job.ch <- fileDoneMsg{outPath: outPath, stats: stats, err: err}
	}()

	return job, nil
}

// outputName picks the default output file name next to the input.
func outputName(encode bool, inPath string, log *slog.Logger) string {
	if encode {
		return sniff.EncodedName(inPath)
	}

	ext := ".bin"
	if f, err := os.Open(inPath); err == nil {
		if c, err := sniff.Classify(f, sniff.DefaultSampleSize); err == nil {
			ext = c.Extension
		} else {
			log.Debug("classify input", "error", err)
		}
		f.Close()
	}
	return sniff.DecodedName(inPath, ext)
}

func (j *fileJob) listen() tea.Cmd {
	return func() tea.Msg {
		return <-j.ch
	}
}
