package templates

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"
)

func renderString(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	return buf.String()
}

func TestErrorAlert(t *testing.T) {
	tests := []struct {
		name        string
		message     string
		action      string
		code        string
		wantContain []string
		wantAbsent  []string
	}{
		{
			name:        "message action and code",
			message:     "The input is not valid Base64.",
			action:      "Check the input or switch to lenient mode.",
			code:        "B64001",
			wantContain: []string{`role="alert"`, "<strong>The input is not valid Base64.</strong>", "<p>Check the input or switch to lenient mode.</p>", "Code: B64001"},
		},
		{
			name:        "no action",
			message:     "Job not found.",
			code:        "JOB001",
			wantContain: []string{"<strong>Job not found.</strong><p class=\"error-code\">Code: JOB001</p>"},
			wantAbsent:  []string{"<p></p>"},
		},
		{
			name:        "message is escaped",
			message:     `<script>alert("x")</script>`,
			code:        "SYS001",
			wantContain: []string{"&lt;script&gt;"},
			wantAbsent:  []string{"<script>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := renderString(t, ErrorAlert(tt.message, tt.action, tt.code))
			for _, want := range tt.wantContain {
				if !strings.Contains(got, want) {
					t.Errorf("output missing %q:\n%s", want, got)
				}
			}
			for _, bad := range tt.wantAbsent {
				if strings.Contains(got, bad) {
					t.Errorf("output contains %q:\n%s", bad, got)
				}
			}
		})
	}
}

func TestErrorPage(t *testing.T) {
	got := renderString(t, ErrorPage("Not Found", "Job not found.", "", "JOB001"))

	for _, want := range []string{"<!doctype html>", "<title>Not Found</title>", "<h1>Not Found</h1>", `class="alert alert-error"`, `href="/"`} {
		if !strings.Contains(got, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestIndexPage(t *testing.T) {
	tests := []struct {
		name        string
		params      IndexParams
		wantContain []string
		wantAbsent  []string
	}{
		{
			name:   "open server",
			params: IndexParams{MaxUploadSize: 100 << 20, DecodeMode: "lenient"},
			wantContain: []string{
				`data-max-upload="104857600"`,
				`data-mode="lenient"`,
				`data-require-key="false"`,
				`placeholder="API key" hidden>`,
				"Uploads up to 100.0 MiB.",
				"Default (lenient)",
				"<script>",
			},
		},
		{
			name:        "key required",
			params:      IndexParams{MaxUploadSize: 512, DecodeMode: "strict", RequireKey: true},
			wantContain: []string{`data-require-key="true"`, `placeholder="API key">`, "Uploads up to 512 B.", "Default (strict)"},
			wantAbsent:  []string{`placeholder="API key" hidden`},
		},
		{
			name:        "mode is escaped in attributes",
			params:      IndexParams{DecodeMode: `x" onload="y`},
			wantContain: []string{`data-mode="x&#34; onload=&#34;y"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := renderString(t, IndexPage(tt.params))
			for _, want := range tt.wantContain {
				if !strings.Contains(got, want) {
					t.Errorf("page missing %q", want)
				}
			}
			for _, bad := range tt.wantAbsent {
				if strings.Contains(got, bad) {
					t.Errorf("page contains %q", bad)
				}
			}
		})
	}
}

func TestSizeLabel(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{100 << 20, "100.0 MiB"},
		{3 << 30, "3.0 GiB"},
	}
	for _, tt := range tests {
		if got := sizeLabel(tt.in); got != tt.want {
			t.Errorf("sizeLabel(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
