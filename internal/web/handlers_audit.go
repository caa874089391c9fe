package web

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/JonMunkholm/lanes/internal/core"
)

const auditPageSize = 50

// auditQuery reads the filters shared by the list and export endpoints.
// Dates are YYYY-MM-DD; "to" includes the whole day.
func auditQuery(r *http.Request) core.AuditQuery {
	q := r.URL.Query()
	out := core.AuditQuery{
		SubjectPID: q.Get("pid"),
		Actor:      q.Get("actor"),
		Field:      core.Field(q.Get("field")),
	}
	if from := q.Get("from"); from != "" {
		if t, err := time.Parse("2006-01-02", from); err == nil {
			out.Start = t
		}
	}
	if to := q.Get("to"); to != "" {
		if t, err := time.Parse("2006-01-02", to); err == nil {
			out.End = t.Add(24 * time.Hour)
		}
	}
	return out
}

func (s *Server) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	page := parseIntParam(r, "page", 1)
	pageSize := parseIntParam(r, "page_size", auditPageSize)
	if pageSize > core.ExportLimit {
		pageSize = core.ExportLimit
	}

	q := auditQuery(r)
	q.Limit = pageSize
	q.Offset = (page - 1) * pageSize

	result, err := s.audit.List(r.Context(), q)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleAuditLogExport downloads matching entries as CSV. The file is
// rendered before any byte is sent so a failed query still gets a
// proper error status.
func (s *Server) handleAuditLogExport(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	n, err := s.audit.Export(r.Context(), &buf, auditQuery(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	filename := fmt.Sprintf("roster_audit_%s.csv", time.Now().UTC().Format("20060102_150405"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Header().Set("X-Export-Count", strconv.Itoa(n))
	_, _ = buf.WriteTo(w)
}

// handleAuditLogClear deletes the whole log. The caller must send
// confirm=yes and be attributable to an actor.
func (s *Server) handleAuditLogClear(w http.ResponseWriter, r *http.Request) {
	if r.FormValue("confirm") != "yes" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "confirmation required",
			Message: "Clearing the audit log cannot be undone",
			Action:  "Resend with confirm=yes",
			Code:    "AUD001",
		})
		return
	}

	actor := core.ActorFromContext(r.Context())
	if actor == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "actor required",
			Message: "Clearing the audit log must be attributed to someone",
			Action:  "Send the actor header or configure a default actor",
			Code:    "AUD002",
		})
		return
	}

	n, err := s.audit.Clear(r.Context(), actor)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

func parseIntParam(r *http.Request, name string, fallback int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || v < 1 {
		return fallback
	}
	return v
}
