// Package dashboard serves the read-only web view over the case registry
// and the downloaded documents.
package dashboard

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"auctionwatch-backend/internal/caseregistry"
	"auctionwatch-backend/internal/docstore"
	"auctionwatch-backend/internal/filings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type caseView struct {
	CaseNumber  string            `json:"case_number"`
	Borough     string            `json:"borough"`
	AuctionDate string            `json:"auction_date"`
	CaseName    string            `json:"case_name"`
	Documents   map[string]string `json:"documents"`
}

type Server struct {
	Registry caseregistry.Store
	Store    docstore.Store
}

func (s Server) viewOf(c caseregistry.Case) caseView {
	auctionDate := ""
	if !c.AuctionDate.IsZero() {
		auctionDate = c.AuctionDate.String()
	}
	view := caseView{
		CaseNumber:  c.CaseNumber,
		Borough:     c.Borough,
		AuctionDate: auctionDate,
		CaseName:    c.CaseName,
		Documents:   map[string]string{},
	}
	for _, f := range filings.AllFilingTypes {
		path := filings.StoragePath(s.Store, f, c.CaseNumber, c.AuctionDate)
		if s.Store.Has(path) {
			view.Documents[f.Dir()] = "/saledocs/" + s.Store.RelPath(path)
		}
	}
	return view
}

// Handler builds the dashboard router: the case listing API plus the raw
// document tree.
func (s Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/api/cases", s.handleCases)
	r.Get("/api/filings", s.handleFilings)
	r.Handle("/saledocs/*", http.StripPrefix("/saledocs/", http.FileServer(http.Dir(s.Store.Root))))

	return r
}

// handleFilings reports the stored documents of one case, looked up by
// index number (and borough, when the number recurs across boroughs).
// Index numbers contain a slash, so they travel as a query parameter.
func (s Server) handleFilings(w http.ResponseWriter, r *http.Request) {
	caseNumber := r.URL.Query().Get("case")
	if caseNumber == "" {
		http.Error(w, "missing case parameter", http.StatusBadRequest)
		return
	}
	borough := r.URL.Query().Get("borough")

	cases, err := s.Registry.List(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list cases", "err", err)
		http.Error(w, "failed to list cases", http.StatusInternalServerError)
		return
	}

	for _, c := range cases {
		if c.CaseNumber != caseNumber {
			continue
		}
		if borough != "" && c.Borough != borough {
			continue
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(s.viewOf(c)); err != nil {
			slog.ErrorContext(r.Context(), "failed to encode filings", "err", err)
		}
		return
	}
	http.Error(w, "unknown case", http.StatusNotFound)
}

func (s Server) handleCases(w http.ResponseWriter, r *http.Request) {
	cases, err := s.Registry.List(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list cases", "err", err)
		http.Error(w, "failed to list cases", http.StatusInternalServerError)
		return
	}

	views := make([]caseView, 0, len(cases))
	for _, c := range cases {
		views = append(views, s.viewOf(c))
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(views); err != nil {
		slog.ErrorContext(r.Context(), "failed to encode cases", "err", err)
	}
}

// ListenAndServe runs the dashboard until the server errors out.
func (s Server) ListenAndServe(addr string) error {
	slog.Info("dashboard listening", "addr", addr)
	return http.ListenAndServe(addr, s.Handler())
}
