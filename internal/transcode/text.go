package transcode

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// EncodeToString encodes an in-memory string. Progress is indeterminate: the
// callback fires once with 100 on success.
func EncodeToString(ctx context.Context, s string, opts Options) (string, error) {
	opts = stringOptions(opts)

	var b strings.Builder
	b.Grow((len(s) + 2) / 3 * 4)
	if _, err := EncodeStream(ctx, strings.NewReader(s), &b, opts); err != nil {
		return "", err
	}
	return b.String(), nil
}

// DecodeString decodes an in-memory Base64 string with the streaming rules
// (BOM skip, filtering, end-of-input padding).
func DecodeString(ctx context.Context, s string, opts Options) ([]byte, Stats, error) {
	opts = stringOptions(opts)

	var b bytes.Buffer
	b.Grow(len(s) / 4 * 3)
	stats, err := DecodeStream(ctx, strings.NewReader(s), &b, opts)
	if err != nil {
		return nil, stats, err
	}
	return b.Bytes(), stats, nil
}

func stringOptions(opts Options) Options {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = StringChunkSize
	}
	opts.TotalSize = UnknownSize
	return opts
}

// PartialSuffix is appended to an output path while it is being written.
const PartialSuffix = ".partial"

// EncodeFile encodes the file at inPath into outPath.
func EncodeFile(ctx context.Context, inPath, outPath string, opts Options) (Stats, error) {
	return transcodeFile(ctx, inPath, outPath, opts, EncodeStream)
}

// DecodeFile decodes the file at inPath into outPath.
func DecodeFile(ctx context.Context, inPath, outPath string, opts Options) (Stats, error) {
	return transcodeFile(ctx, inPath, outPath, opts, DecodeStream)
}

// transcodeFile writes to outPath+PartialSuffix and renames it into place
// only on success. A failed run leaves the partial file for inspection.
func transcodeFile(
	ctx context.Context,
	inPath, outPath string,
	opts Options,
	run func(context.Context, io.Reader, io.Writer, Options) (Stats, error),
) (Stats, error) {
	in, err := os.Open(inPath)
	if err != nil {
		return Stats{}, fmt.Errorf("open input: %w", err)
	}
	defer in.Close()

	partial := outPath + PartialSuffix
	out, err := os.Create(partial)
	if err != nil {
		return Stats{}, fmt.Errorf("create output: %w", err)
	}
	defer out.Close()

	stats, err := run(ctx, in, out, opts)
	if err != nil {
		return stats, err
	}

	if err := out.Sync(); err != nil {
		return stats, fmt.Errorf("sync output: %w", err)
	}
	if err := out.Close(); err != nil {
		return stats, fmt.Errorf("close output: %w", err)
	}
	if err := os.Rename(partial, outPath); err != nil {
		return stats, fmt.Errorf("commit output: %w", err)
	}
	return stats, nil
}
