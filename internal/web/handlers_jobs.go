package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/JonMunkholm/beb64/internal/core"
	"github.com/JonMunkholm/beb64/internal/transcode"
	"github.com/go-chi/chi/v5"
)

// multipartOverhead allows for boundaries and part headers on top of the
// configured upload limit.
const multipartOverhead = 1 << 20

// handleStartJob streams a multipart "file" part into a new job. Job options
// come from the query string (mode, text, wrap) because the file part is
// consumed as it arrives.
func (s *Server) handleStartJob(w http.ResponseWriter, r *http.Request) {
	dir, err := core.ParseDirection(chi.URLParam(r, "direction"))
	if err != nil {
		s.badRequest(w, r, err.Error())
		return
	}

	opts, err := s.jobOptions(r)
	if err != nil {
		s.badRequest(w, r, err.Error())
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.service.MaxUploadSize()+multipartOverhead)
	mr, err := r.MultipartReader()
	if err != nil {
		s.badRequest(w, r, "expected a multipart/form-data upload")
		return
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			s.badRequest(w, r, "no file provided")
			return
		}
		if err != nil {
			s.respondErrorStatus(w, r, err, statusForUpload(err))
			return
		}
		if part.FormName() != "file" {
			part.Close()
			continue
		}

		id, err := s.service.StartJob(withClient(r.Context(), r), dir, part.FileName(), part, opts)
		part.Close()
		if err != nil {
			s.respondErrorStatus(w, r, err, statusForUpload(err))
			return
		}

		writeJSON(w, http.StatusAccepted, map[string]string{"job_id": id})
		return
	}
}

func statusForUpload(err error) int {
	if status := statusFor(err); status != http.StatusInternalServerError {
		return status
	}
	return http.StatusBadRequest
}

// jobOptions reads ?mode=strict|lenient, ?text=1 and ?wrap=N over the
// service defaults.
func (s *Server) jobOptions(r *http.Request) (core.JobOptions, error) {
	opts := s.service.DefaultJobOptions()
	q := r.URL.Query()

	if v := q.Get("mode"); v != "" {
		m, err := transcode.ParseMode(strings.ToLower(v))
		if err != nil {
			return opts, err
		}
		opts.Mode = m
	}
	if v := q.Get("text"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, fmt.Errorf("invalid text flag %q", v)
		}
		opts.RequireText = b
	}
	if v := q.Get("wrap"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return opts, fmt.Errorf("invalid wrap column %q", v)
		}
		opts.WrapColumn = n
	}
	return opts, nil
}

// handleJobProgress streams job progress via Server-Sent Events. The event id
// is the whole percentage, so a reconnecting client passing lastEventId (or
// the Last-Event-ID header) skips updates it has already seen.
func (s *Server) handleJobProgress(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	lastEventID := -1
	raw := r.Header.Get("Last-Event-ID")
	if v := r.URL.Query().Get("lastEventId"); v != "" {
		raw = v
	}
	if raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			lastEventID = n
		}
	}

	progressCh, err := s.service.SubscribeProgress(jobID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.respondErrorStatus(w, r, errors.New("streaming not supported"), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	for {
		select {
		case progress, ok := <-progressCh:
			if !ok {
				fmt.Fprint(w, "event: complete\ndata: {}\n\n")
				flusher.Flush()
				return
			}

			eventID := int(progress.Percent)
			if !progress.Phase.Terminal() && eventID <= lastEventID {
				continue
			}

			data, err := json.Marshal(progress)
			if err != nil {
				return
			}
			fmt.Fprintf(w, "id: %d\nevent: progress\ndata: %s\n\n", eventID, data)
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

// handleJobStatus returns the latest progress without waiting.
func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	p, err := s.service.JobProgress(chi.URLParam(r, "jobID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleJobResult returns the final result. Without ?wait=1 an unfinished job
// answers 202 with its progress; with it the request blocks until the job
// ends or the client goes away.
func (s *Server) handleJobResult(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	if wait, _ := strconv.ParseBool(r.URL.Query().Get("wait")); !wait {
		p, err := s.service.JobProgress(jobID)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		if !p.Phase.Terminal() {
			writeJSON(w, http.StatusAccepted, p)
			return
		}
	}

	res, err := s.service.JobResult(r.Context(), jobID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleDownload serves the output of a completed job as an attachment.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	f, res, err := s.service.OpenResult(chi.URLParam(r, "jobID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": res.OutputName,
	}))

	http.ServeContent(w, r, res.OutputName, info.ModTime(), f)
}

// handleCancelJob cancels a running job.
func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	if err := s.service.CancelJob(chi.URLParam(r, "jobID")); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelling"})
}

// handleHistory lists recent finished jobs. It is empty without a database.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			s.badRequest(w, r, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	records, err := s.service.History(r.Context(), limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if records == nil {
		records = []core.JobRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}
