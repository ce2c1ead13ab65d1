// Package core runs Base64 transcode jobs for the web and terminal front ends.
//
// The codec and streaming engine live in internal/codec and
// internal/transcode. This package adds what a long-running service needs on
// top of them: bounded concurrency, background jobs with progress, job
// history and user-facing error messages.
//
// # Jobs
//
// A job is started with [Service.StartEncode] or [Service.StartDecode]. The
// input is spooled to disk before the call returns, so the caller's reader
// may be closed right away. The transcode then runs in the background:
//
//  1. A slot is taken from the [JobLimiter]; callers wait up to MaxWaitTime
//  2. The input is copied to <spool>/<id>.in, bounded by MaxUploadSize
//  3. The transcode writes <spool>/<id>.out.partial and renames it on success
//  4. Progress is broadcast to subscribers via [Service.SubscribeProgress]
//  5. The result is kept for the retention period, then removed
//
// Jobs can be stopped with [Service.CancelJob]. A cancelled or failed job
// never exposes a partial result through [Service.OpenResult].
//
// # Error Handling
//
// Technical errors are mapped to user-facing messages using [MapError].
// Each category has a code for support reference:
//
//   - B64001-B64004: codec errors (malformed, not text, empty, I/O)
//   - JOB001-JOB006: job errors (cancelled, busy, not found, timeout, size)
//   - RATE001: rate limiting
//
// # History
//
// Finished jobs are recorded through a [HistoryStore]. [PgHistory] writes to
// the transcode_jobs table; [NopHistory] is used when no database is set.
package core
