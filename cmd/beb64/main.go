// Command beb64 encodes and decodes Base64. With -e or -d, with -in/-out, or
// when stdin is not a terminal it streams input to output; otherwise it starts
// the interactive terminal UI.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/beb64/internal/application"
	"github.com/JonMunkholm/beb64/internal/core"
	"github.com/JonMunkholm/beb64/internal/logging"
	"github.com/JonMunkholm/beb64/internal/transcode"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"
)

type options struct {
	encode, decode bool
	in, out        string
	mode           transcode.Mode
	wrap           int
	text           bool
	theme          application.Theme
	logFile        string
	logLevel       string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdin *os.File, stdout io.Writer, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if opts.encode || opts.decode || opts.in != "" || opts.out != "" || !term.IsTerminal(int(stdin.Fd())) {
		log := logging.New(stderr, opts.logLevel, "text")
		if err := pipe(ctx, opts, stdin, stdout, stderr, log); err != nil {
			fmt.Fprintln(stderr, "beb64:", errorText(err))
			return 1
		}
		return 0
	}

	return interactive(opts, stderr)
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	fs := flag.NewFlagSet("beb64", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var opts options
	var mode, theme string
	fs.BoolVar(&opts.encode, "e", false, "encode input to Base64")
	fs.BoolVar(&opts.decode, "d", false, "decode Base64 input")
	fs.StringVar(&opts.in, "in", "", "input file (default stdin)")
	fs.StringVar(&opts.out, "out", "", "output file (default stdout)")
	fs.StringVar(&mode, "mode", "lenient", "decode mode: lenient or strict")
	fs.IntVar(&opts.wrap, "wrap", 0, fmt.Sprintf("wrap encoded output at this column (%d for MIME), 0 disables", transcode.MIMELineLength))
	fs.BoolVar(&opts.text, "text", false, "fail unless the decoded output is UTF-8 text")
	fs.StringVar(&theme, "theme", "light", "terminal UI theme: light or dark")
	fs.StringVar(&opts.logFile, "log", "", "terminal UI log file (default: no logging)")
	fs.StringVar(&opts.logLevel, "log-level", "warn", "log level")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "unexpected argument %q\n", fs.Arg(0))
		return opts, errors.New("unexpected arguments")
	}
	if opts.encode && opts.decode {
		fmt.Fprintln(stderr, "-e and -d are mutually exclusive")
		return opts, errors.New("conflicting flags")
	}
	if opts.wrap < 0 {
		fmt.Fprintln(stderr, "-wrap must not be negative")
		return opts, errors.New("invalid wrap")
	}

	var err error
	if opts.mode, err = transcode.ParseMode(mode); err != nil {
		fmt.Fprintln(stderr, err)
		return opts, err
	}
	if opts.theme, err = application.ParseTheme(theme); err != nil {
		fmt.Fprintln(stderr, err)
		return opts, err
	}
	return opts, nil
}

// pipe streams one transcode. Decoding is chosen by -d; everything else
// encodes. A file-to-file run commits the output only on success.
func pipe(ctx context.Context, opts options, stdin io.Reader, stdout, stderr io.Writer, log *slog.Logger) error {
	topts := transcode.Options{
		Mode:        opts.mode,
		RequireText: opts.text,
		WrapColumn:  opts.wrap,
		Logger:      log,
	}

	var (
		stats transcode.Stats
		err   error
	)
	if opts.in != "" && opts.out != "" {
		run := transcode.EncodeFile
		if opts.decode {
			run = transcode.DecodeFile
		}
		stats, err = run(ctx, opts.in, opts.out, topts)
		if err != nil {
			os.Remove(opts.out + transcode.PartialSuffix)
		}
	} else {
		stats, err = pipeStream(ctx, opts, topts, stdin, stdout)
	}
	if err != nil {
		return err
	}

	if stats.InvalidBytes > 0 {
		fmt.Fprintf(stderr, "beb64: skipped %d invalid input bytes\n", stats.InvalidBytes)
	}
	return nil
}

func pipeStream(ctx context.Context, opts options, topts transcode.Options, stdin io.Reader, stdout io.Writer) (transcode.Stats, error) {
	src := stdin
	if opts.in != "" {
		f, err := os.Open(opts.in)
		if err != nil {
			return transcode.Stats{}, err
		}
		defer f.Close()
		src = f
	}

	dst := stdout
	if opts.out != "" {
		f, err := os.Create(opts.out)
		if err != nil {
			return transcode.Stats{}, err
		}
		defer f.Close()
		dst = f
	}

	w := bufio.NewWriterSize(dst, 64<<10)
	if opts.decode {
		return transcode.DecodeStream(ctx, src, w, topts)
	}
	stats, err := transcode.EncodeStream(ctx, src, w, topts)
	if err == nil && opts.out == "" {
		// Terminate the line for shells; not part of the Base64 text.
		_, err = fmt.Fprintln(stdout)
	}
	return stats, err
}

func interactive(opts options, stderr io.Writer) int {
	log := logging.Discard()
	if opts.logFile != "" {
		f, err := os.OpenFile(opts.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintln(stderr, "beb64:", err)
			return 1
		}
		defer f.Close()
		log = logging.New(f, opts.logLevel, "text")
	}

	p := tea.NewProgram(application.New(opts.theme, opts.mode, log), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintln(stderr, "beb64:", err)
		return 1
	}
	return 0
}

func errorText(err error) string {
	if core.IsUserFacing(err) {
		return core.FormatUserError(err)
	}
	return err.Error()
}
