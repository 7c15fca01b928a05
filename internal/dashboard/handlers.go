package dashboard

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/gyeh/denial-dash/internal/asset"
	"github.com/gyeh/denial-dash/internal/chart"
	"github.com/gyeh/denial-dash/internal/export"
	"github.com/gyeh/denial-dash/internal/filter"
	"github.com/gyeh/denial-dash/internal/kpi"
	"github.com/gyeh/denial-dash/internal/ledger"
	"github.com/gyeh/denial-dash/internal/output"
)

// PreviewRows caps the raw-data preview table.
const PreviewRows = 200

// FallbackHeading replaces the logo when it cannot be shown.
const FallbackHeading = "Dental Revenue Cycle Dashboard"

var errBadQuery = errors.New("bad query")

// criteria parses payer, range and type query parameters against the
// session's selector choices. A missing type parameter selects All; a type
// parameter present with only empty values selects nothing.
func (s *Server) criteria(r *http.Request, records []ledger.DenialRecord) (filter.Criteria, error) {
	q := r.URL.Query()
	choices := filter.Options(records)

	dr := s.opts.DefaultRange
	if raw := q.Get("range"); raw != "" {
		parsed, err := filter.ParseDateRange(raw)
		if err != nil {
			return filter.Criteria{}, fmt.Errorf("%w: %v", errBadQuery, err)
		}
		dr = parsed
	}

	payer := filter.All
	if raw := q.Get("payer"); raw != "" {
		payer = raw
	}

	types := []string{filter.All}
	if raw, ok := q["type"]; ok {
		types = types[:0]
		for _, t := range raw {
			if t != "" {
				types = append(types, t)
			}
		}
	}

	if err := choices.Check(payer, types); err != nil {
		return filter.Criteria{}, fmt.Errorf("%w: %v", errBadQuery, err)
	}
	return filter.NewCriteria(dr, payer, types, s.opts.Now()), nil
}

// view resolves the session and the filtered view for r, writing a 400 on
// bad parameters.
func (s *Server) view(w http.ResponseWriter, r *http.Request) (*Session, filter.Criteria, filter.View, bool) {
	sess := s.sessions.session(w, r)
	c, err := s.criteria(r, sess.Records)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, filter.Criteria{}, nil, false
	}
	return sess, c, filter.Resolve(sess.Records, c), true
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.session(w, r)
	writeJSON(w, filter.Options(sess.Records))
}

func (s *Server) handleKPIs(w http.ResponseWriter, r *http.Request) {
	_, c, v, ok := s.view(w, r)
	if !ok {
		return
	}
	writeJSON(w, output.NewReport(v, c))
}

type chartResponse struct {
	ID     string      `json:"id"`
	Title  string      `json:"title"`
	Kind   chart.Kind  `json:"kind"`
	Labels []string    `json:"labels"`
	Values []int       `json:"values"`
	Groups []kpi.Group `json:"groups"`
}

func (s *Server) handleChartData(w http.ResponseWriter, r *http.Request) {
	spec, err := chart.Lookup(chi.URLParam(r, "chart"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	_, c, v, ok := s.view(w, r)
	if !ok {
		return
	}

	groups := spec.Groups(kpi.Compute(v, c.Now))
	resp := chartResponse{
		ID:     spec.ID,
		Title:  spec.Title,
		Kind:   spec.Kind,
		Labels: make([]string, 0, len(groups)),
		Values: make([]int, 0, len(groups)),
		Groups: groups,
	}
	for _, g := range groups {
		resp.Labels = append(resp.Labels, g.Label)
		resp.Values = append(resp.Values, g.Value)
	}
	writeJSON(w, resp)
}

func (s *Server) handleChartPNG(w http.ResponseWriter, r *http.Request) {
	spec, err := chart.Lookup(chi.URLParam(r, "chart"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	_, c, v, ok := s.view(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := chart.Render(&buf, spec, kpi.Compute(v, c.Now)); err != nil {
		if errors.Is(err, chart.ErrNoData) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		log.Printf("chart render failed chart=%s err=%v", spec.ID, err)
		http.Error(w, "rendering chart", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(buf.Bytes())
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	sess, c, v, ok := s.view(w, r)
	if !ok {
		return
	}

	req := export.Request{
		Format: format,
		Gzip:   boolParam(r, "gzip"),
		Title:  s.opts.Title,
		Now:    c.Now,
	}

	if format == export.FormatPDF && boolParam(r, "charts") {
		dir, err := os.MkdirTemp("", "denial-charts-*")
		if err != nil {
			http.Error(w, "creating chart dir", http.StatusInternalServerError)
			return
		}
		defer os.RemoveAll(dir)
		req.Charts, err = chart.RenderAll(kpi.Compute(v, c.Now), dir)
		if err != nil {
			log.Printf("chart render failed session=%s err=%v", sess.ID, err)
		}
	}

	art, err := export.Render(v, req)
	if err != nil {
		log.Printf("export failed session=%s format=%s err=%v", sess.ID, format, err)
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}
	for _, e := range art.Embeds {
		if e.Status != asset.Loaded {
			log.Printf("chart embed skipped path=%s status=%s err=%v", e.Path, e.Status, e.Err)
		}
	}

	log.Printf("export session=%s format=%s rows=%d bytes=%d", sess.ID, format, len(v), len(art.Data))
	w.Header().Set("Content-Type", art.MIMEType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", art.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(art.Data)))
	w.Write(art.Data)
}

func (s *Server) handleLogo(w http.ResponseWriter, r *http.Request) {
	logo := asset.Load(s.opts.LogoPath)
	if logo.Status != asset.Loaded {
		http.Error(w, logo.Err.Error(), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", logo.ContentType())
	w.Write(logo.Data)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sess, c, v, ok := s.view(w, r)
	if !ok {
		return
	}

	summary := kpi.Compute(v, c.Now)
	preview := kpi.SortForTable(v)
	if len(preview) > PreviewRows {
		preview = preview[:PreviewRows]
	}

	data := pageData{
		Title:    s.opts.Title,
		Logo:     asset.Load(s.opts.LogoPath),
		Choices:  filter.Options(sess.Records),
		Criteria: c,
		Summary:  summary,
		Insights: kpi.Insights(summary),
		Preview:  preview,
		Rows:     len(v),
		Charts:   chart.Specs(),
		Query:    template.URL(query(c).Encode()),
	}

	var buf bytes.Buffer
	if err := s.page.Execute(&buf, data); err != nil {
		log.Printf("template error: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// query re-encodes c so export and chart links carry the active filters.
func query(c filter.Criteria) url.Values {
	q := url.Values{}
	q.Set("payer", c.Payer)
	q.Set("range", string(c.DateRange))
	if len(c.DenialTypes) == 0 {
		q.Add("type", "")
	}
	for _, t := range c.DenialTypes {
		q.Add("type", t)
	}
	return q
}

func boolParam(r *http.Request, key string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(key))
	return err == nil && v
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encoding response: %v", err)
	}
}
