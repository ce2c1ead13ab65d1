package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/beb64/internal/codec"
	"github.com/JonMunkholm/beb64/internal/logging"
	"github.com/JonMunkholm/beb64/internal/sniff"
	"github.com/JonMunkholm/beb64/internal/transcode"
)

type encodeRequest struct {
	Text       string `json:"text"`
	WrapColumn int    `json:"wrap_column,omitempty"`
}

type encodeResponse struct {
	Base64  string `json:"base64"`
	Preview string `json:"preview"`
	Length  int    `json:"length"`
}

type decodeRequest struct {
	Base64 string `json:"base64"`
	Mode   string `json:"mode,omitempty"`
}

type decodeResponse struct {
	Text  string          `json:"text"`
	Stats transcode.Stats `json:"stats"`
}

type validateResponse struct {
	Valid   bool   `json:"valid"`
	Text    bool   `json:"text"`
	Outcome string `json:"outcome"`
	Message string `json:"message,omitempty"`
}

// decodeJSON reads a size-limited JSON body into v. It writes the error
// response itself and reports whether the handler should continue.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Codec.MaxTextSize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			s.respondError(w, r, err)
			return false
		}
		s.badRequest(w, r, "invalid JSON body")
		return false
	}
	return true
}

// handleEncode encodes UTF-8 text to Base64.
func (s *Server) handleEncode(w http.ResponseWriter, r *http.Request) {
	var req encodeRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.WrapColumn < 0 {
		s.badRequest(w, r, "wrap_column must not be negative")
		return
	}

	out, err := transcode.EncodeToString(r.Context(), req.Text, transcode.Options{
		WrapColumn: req.WrapColumn,
		Logger:     logging.FromContext(r.Context()),
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, encodeResponse{
		Base64:  out,
		Preview: sniff.Preview(out),
		Length:  len(out),
	})
}

// handleDecode decodes Base64 to UTF-8 text. Output that is not valid UTF-8
// is rejected; binary payloads go through the jobs endpoints instead.
func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	var req decodeRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	mode := s.service.DecodeMode()
	if req.Mode != "" {
		m, err := transcode.ParseMode(strings.ToLower(req.Mode))
		if err != nil {
			s.badRequest(w, r, err.Error())
			return
		}
		mode = m
	}

	if codec.StripWhitespace(req.Base64) == "" {
		s.respondError(w, r, codec.Empty())
		return
	}

	data, stats, err := transcode.DecodeString(r.Context(), req.Base64, transcode.Options{
		Mode:        mode,
		RequireText: true,
		Logger:      logging.FromContext(r.Context()),
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, decodeResponse{Text: string(data), Stats: stats})
}

// handleValidate reports whether the input is well-formed Base64 and whether
// it decodes to text. It never fails on bad input.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req decodeRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	out := codec.DecodeStrictText(req.Base64)
	resp := validateResponse{
		Valid:   codec.IsValidBase64(req.Base64),
		Text:    out.OK(),
		Outcome: out.Kind.String(),
	}
	if out.Err != nil {
		resp.Message = out.Err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleClassify samples the request body and guesses what it decodes to.
func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	c, err := sniff.Classify(r.Body, s.service.SniffSampleSize())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}
