package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/lanes/internal/core"
	"github.com/JonMunkholm/lanes/internal/web/templates"
)

var errNoFile = errors.New("no file provided")

// PreviewResponse is what a commit would do, with every warning.
type PreviewResponse struct {
	ImportID  string              `json:"import_id"`
	Profile   string              `json:"profile"`
	Matched   []core.MatchedRow   `json:"matched"`
	Unmatched []core.UnmatchedRow `json:"unmatched"`
	Warnings  []core.WarningView  `json:"warnings"`
	Summary   core.ImportOutcome  `json:"summary"`
}

// CommitResponse reports a committed import and the audit entries written.
type CommitResponse struct {
	ImportID  string              `json:"import_id"`
	Profile   string              `json:"profile"`
	Updated   int                 `json:"updated"`
	Skipped   int                 `json:"skipped"`
	Unmatched []core.UnmatchedRow `json:"unmatched"`
	Warnings  []core.WarningView  `json:"warnings"`
	Audit     []core.AuditEntry   `json:"audit"`
}

// readImport resolves the profile and parses the uploaded file.
func (s *Server) readImport(w http.ResponseWriter, r *http.Request) (core.Input, error) {
	profile, err := core.Lookup(chi.URLParam(r, "profile"))
	if err != nil {
		return core.Input{}, err
	}

	maxSize := s.cfg.Import.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)
	if err := r.ParseMultipartForm(maxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return core.Input{}, fmt.Errorf("file too large: %w", err)
		}
		return core.Input{}, errNoFile
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		return core.Input{}, errNoFile
	}
	defer file.Close()

	headers, rows, err := core.ReadCSV(file, s.cfg.Import.MaxRows)
	if err != nil {
		return core.Input{}, err
	}
	return core.Input{Profile: profile, Headers: headers, Rows: rows}, nil
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	in, err := s.readImport(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Import.Timeout)
	defer cancel()

	out, err := s.engine.Preview(ctx, s.backend.Roster(), in)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = templates.ImportSummary("Preview", out.Summary()).Render(r.Context(), w)
		return
	}
	writeJSON(w, http.StatusOK, PreviewResponse{
		ImportID:  out.ImportID,
		Profile:   out.Profile,
		Matched:   out.Matched,
		Unmatched: out.Unmatched,
		Warnings:  core.DescribeWarnings(out.Warnings),
		Summary:   out.Summary(),
	})
}

// handleCommit applies the file in one transaction. At most
// Import.MaxConcurrent commits run at once.
func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request) {
	in, err := s.readImport(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Import.Timeout)
	defer cancel()

	if err := s.limiter.Acquire(ctx); err != nil {
		s.respondError(w, r, err)
		return
	}
	defer s.limiter.Release()

	var out *core.Outcome
	err = s.backend.InTx(ctx, func(store core.Store) error {
		var err error
		out, err = s.engine.Commit(ctx, store, in)
		return err
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = templates.ImportSummary("Import committed", out.Summary()).Render(r.Context(), w)
		return
	}
	writeJSON(w, http.StatusOK, CommitResponse{
		ImportID:  out.ImportID,
		Profile:   out.Profile,
		Updated:   out.Updated,
		Skipped:   out.Skipped,
		Unmatched: out.Unmatched,
		Warnings:  core.DescribeWarnings(out.Warnings),
		Audit:     out.Audit,
	})
}

// ProfileResponse describes an import profile for clients.
type ProfileResponse struct {
	Key         string   `json:"key"`
	Label       string   `json:"label"`
	Description string   `json:"description,omitempty"`
	Required    []string `json:"required"`
	Identity    []string `json:"identity"`
	Fields      []string `json:"fields"`
}

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles := core.All()
	out := make([]ProfileResponse, 0, len(profiles))
	for _, p := range profiles {
		rules := p.Rules(s.engine.Policy().Aliases)
		resp := ProfileResponse{
			Key:         p.Key,
			Label:       p.Label,
			Description: p.Description,
			Required:    append([]string{}, rules.Required...),
		}
		for _, group := range rules.AnyOf {
			resp.Identity = append(resp.Identity, strings.Join(group, "+"))
		}
		for _, f := range p.Fields() {
			resp.Fields = append(resp.Fields, string(f))
		}
		out = append(out, resp)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Server.ReadTimeout)
	defer cancel()

	status := http.StatusOK
	body := map[string]any{"status": "ok", "imports": s.limiter.Status()}
	if err := s.backend.Ping(ctx); err != nil {
		status = http.StatusServiceUnavailable
		body["status"] = "unavailable"
		body["database"] = err.Error()
	}
	writeJSON(w, status, body)
}
