package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/gridkit/internal/diff"
	"github.com/sells-group/gridkit/internal/export"
	"github.com/sells-group/gridkit/internal/facet"
	"github.com/sells-group/gridkit/internal/filter"
	"github.com/sells-group/gridkit/internal/grid"
	"github.com/sells-group/gridkit/internal/record"
	"github.com/sells-group/gridkit/internal/schema"
	"github.com/sells-group/gridkit/internal/sorter"
	"github.com/sells-group/gridkit/internal/source"
	"github.com/sells-group/gridkit/internal/store"
	"github.com/sells-group/gridkit/internal/view"
)

const maxBodyBytes = 32 << 20

type createRequest struct {
	Source     string          `json:"source,omitempty"`
	Compare    string          `json:"compare,omitempty"`
	Records    []record.Record `json:"records,omitempty"`
	Comparison []record.Record `json:"comparison,omitempty"`
	View       string          `json:"view,omitempty"`
	Editable   bool            `json:"editable,omitempty"`
}

type cellRequest struct {
	Value any `json:"value"`
}

type filterRequest struct {
	Value *filter.Value `json:"value"`
}

type sortRequest struct {
	Column    string `json:"column"`
	Direction string `json:"direction,omitempty"`
}

type stickyRequest struct {
	Column string `json:"column"`
}

type comparisonRequest struct {
	Source  string          `json:"source,omitempty"`
	Records []record.Record `json:"records,omitempty"`
}

type saveViewRequest struct {
	Name string `json:"name"`
}

type rowResponse struct {
	Index           int           `json:"index"`
	Status          record.Status `json:"status,omitempty"`
	ModifiedColumns []string      `json:"modified_columns,omitempty"`
	Values          record.Record `json:"values"`
}

type gridResponse struct {
	ID           string                  `json:"id"`
	Source       string                  `json:"source,omitempty"`
	Compare      string                  `json:"compare,omitempty"`
	CreatedAt    time.Time               `json:"created_at"`
	Columns      []string                `json:"columns"`
	ColumnWidths []float64               `json:"column_widths"`
	StickyColumn string                  `json:"sticky_column,omitempty"`
	UniqueColumn string                  `json:"unique_column,omitempty"`
	Filters      filter.Set              `json:"filters"`
	Sort         sorter.Spec             `json:"sort"`
	Schema       schema.Schema           `json:"schema"`
	Metadata     map[string]string       `json:"metadata,omitempty"`
	Summary      diff.Summary            `json:"summary"`
	Scales       map[string]facet.Extent `json:"scales,omitempty"`
	Total        int                     `json:"total"`
	Matched      int                     `json:"matched"`
	Rows         []rowResponse           `json:"rows"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) createGrid(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if !decode(w, r, &req) {
		return
	}

	opts := append([]grid.Option(nil), s.gridOpts...)
	if req.View != "" {
		if s.views == nil {
			writeError(w, http.StatusBadRequest, "saved views are not configured")
			return
		}
		saved, err := s.views.GetView(r.Context(), req.View)
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "view not found")
			return
		}
		if err != nil {
			s.internalError(w, "get view", err)
			return
		}
		opts = append(opts, saved.View.Options()...)
		if req.Source == "" && len(req.Records) == 0 {
			req.Source = saved.View.Source
			req.Compare = saved.View.Compare
		}
	}

	if req.Editable {
		opts = append(opts, grid.WithEditable(true))
	}

	if req.Source == "" && req.Records == nil {
		writeError(w, http.StatusBadRequest, "source or records is required")
		return
	}

	data, compare, err := s.loadPair(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	sess := newSession(req.Source, req.Compare, opts)
	sess.store.LoadData(data)
	if len(compare) > 0 {
		sess.store.LoadComparisonData(compare)
	}
	s.add(sess)

	zap.L().Info("grid created",
		zap.String("id", sess.id),
		zap.String("source", source.Redact(req.Source)),
		zap.Int("records", len(data)),
		zap.Int("comparison", len(compare)),
	)
	writeJSON(w, http.StatusCreated, s.render(sess, 0, -1))
}

// loadPair resolves inline records or loads sources concurrently. A failed
// comparison degrades to no comparison.
func (s *Server) loadPair(ctx context.Context, req createRequest) (data, compare []record.Record, err error) {
	data, compare = req.Records, req.Comparison

	g, gctx := errgroup.WithContext(ctx)
	if req.Source != "" && req.Records == nil {
		g.Go(func() error {
			var err error
			data, err = s.loader.Load(gctx, req.Source)
			return eris.Wrap(err, "server: load source")
		})
	}
	if req.Compare != "" && req.Comparison == nil {
		g.Go(func() error {
			recs, err := s.loader.Load(gctx, req.Compare)
			if err != nil {
				zap.L().Warn("server: comparison load failed, skipping diff",
					zap.String("source", source.Redact(req.Compare)),
					zap.Error(err),
				)
				return nil
			}
			compare = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return data, compare, nil
}

func (s *Server) getGrid(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	offset, limit, err := paging(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.render(sess, offset, limit))
}

func (s *Server) deleteGrid(w http.ResponseWriter, r *http.Request) {
	if !s.remove(chi.URLParam(r, "id")) {
		writeError(w, http.StatusNotFound, "grid not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getFilter(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	st := sess.store.State()
	column := chi.URLParam(r, "column")
	if _, known := st.Schema[column]; !known {
		writeError(w, http.StatusNotFound, "unknown column")
		return
	}
	width := 0
	if v := r.URL.Query().Get("width"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "width must be a non-negative integer")
			return
		}
		width = n
	}
	writeJSON(w, http.StatusOK, st.FilterPropsWidth(column, width))
}

func (s *Server) putFilter(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	column := chi.URLParam(r, "column")
	if _, known := sess.store.State().Schema[column]; !known {
		writeError(w, http.StatusNotFound, "unknown column")
		return
	}
	var req filterRequest
	if !decode(w, r, &req) {
		return
	}
	sess.store.SetFilter(column, req.Value)
	writeJSON(w, http.StatusOK, s.render(sess, 0, -1))
}

func (s *Server) clearFilters(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sess.store.ClearFilters()
	writeJSON(w, http.StatusOK, s.render(sess, 0, -1))
}

func (s *Server) putSort(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req sortRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Column != "" {
		if _, known := sess.store.State().Schema[req.Column]; !known {
			writeError(w, http.StatusBadRequest, "unknown column")
			return
		}
	}
	var dir sorter.Direction
	if req.Direction != "" {
		d, err := sorter.ParseDirection(req.Direction)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		dir = d
	}
	sess.store.SetSort(req.Column, dir)
	writeJSON(w, http.StatusOK, s.render(sess, 0, -1))
}

func (s *Server) putSticky(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req stickyRequest
	if !decode(w, r, &req) {
		return
	}
	if _, known := sess.store.State().Schema[req.Column]; !known {
		writeError(w, http.StatusBadRequest, "unknown column")
		return
	}
	sess.store.SetStickyColumn(req.Column)
	writeJSON(w, http.StatusOK, s.render(sess, 0, -1))
}

func (s *Server) postComparison(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req comparisonRequest
	if !decode(w, r, &req) {
		return
	}
	recs := req.Records
	if req.Source != "" && recs == nil {
		var err error
		recs, err = s.loader.Load(r.Context(), req.Source)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.mu.Lock()
		sess.compare = req.Source
		s.mu.Unlock()
	}
	sess.store.LoadComparisonData(recs)
	writeJSON(w, http.StatusOK, s.render(sess, 0, -1))
}

func (s *Server) getCell(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	row, err1 := strconv.Atoi(chi.URLParam(r, "row"))
	col, err2 := strconv.Atoi(chi.URLParam(r, "column"))
	if err1 != nil || err2 != nil {
		writeError(w, http.StatusBadRequest, "row and column must be integers")
		return
	}
	writeJSON(w, http.StatusOK, sess.store.CellAt(row, col))
}

// putCell sets one cell and feeds the edited dataset back into the grid.
// Row len(view) appends a record.
func (s *Server) putCell(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	row, err1 := strconv.Atoi(chi.URLParam(r, "row"))
	col, err2 := strconv.Atoi(chi.URLParam(r, "column"))
	if err1 != nil || err2 != nil {
		writeError(w, http.StatusBadRequest, "row and column must be integers")
		return
	}
	var req cellRequest
	if !decode(w, r, &req) {
		return
	}

	sess.edit.Lock()
	defer sess.edit.Unlock()

	cols := sess.store.State().Columns
	if col < 0 || col >= len(cols) {
		writeError(w, http.StatusNotFound, "unknown column")
		return
	}
	st, err := sess.store.SetCellValue(row, cols[col], req.Value)
	switch {
	case errors.Is(err, grid.ErrNotEditable):
		writeError(w, http.StatusConflict, "grid is not editable")
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	grid.Resupply(sess.store, st.Pending)

	zap.L().Debug("cell updated",
		zap.String("id", sess.id),
		zap.Int("row", row),
		zap.String("column", cols[col]),
	)
	writeJSON(w, http.StatusOK, s.render(sess, 0, -1))
}

func (s *Server) exportGrid(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	format := chi.URLParam(r, "format")
	switch format {
	case export.FormatCSV, export.FormatJSON, export.FormatXLSX, export.FormatMarkdown:
	default:
		writeError(w, http.StatusNotFound, "unknown export format")
		return
	}
	st := sess.store.State()
	w.Header().Set("Content-Type", export.ContentType(format))
	w.Header().Set("Content-Disposition", `attachment; filename="grid.`+format+`"`)
	if err := export.Write(w, format, st.Columns, st.View, st.Schema); err != nil {
		zap.L().Error("server: export failed", zap.String("id", sess.id), zap.Error(err))
	}
}

func (s *Server) saveView(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if s.views == nil {
		writeError(w, http.StatusBadRequest, "saved views are not configured")
		return
	}
	var req saveViewRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	v := view.Capture(req.Name, sess.store.State())
	v.Source, v.Compare = s.sources(sess)
	saved, err := s.views.SaveView(r.Context(), v)
	if err != nil {
		s.internalError(w, "save view", err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) listViews(w http.ResponseWriter, r *http.Request) {
	if s.views == nil {
		writeJSON(w, http.StatusOK, []store.SavedView{})
		return
	}
	views, err := s.views.ListViews(r.Context())
	if err != nil {
		s.internalError(w, "list views", err)
		return
	}
	if views == nil {
		views = []store.SavedView{}
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session, bool) {
	sess, ok := s.get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "grid not found")
	}
	return sess, ok
}

// render projects a session's state. limit < 0 returns every row.
func (s *Server) render(sess *session, offset, limit int) gridResponse {
	st := sess.store.State()
	src, cmp := s.sources(sess)
	resp := gridResponse{
		ID:           sess.id,
		Source:       source.Redact(src),
		Compare:      source.Redact(cmp),
		CreatedAt:    sess.created,
		Columns:      st.Columns,
		ColumnWidths: st.ColumnWidths,
		StickyColumn: st.StickyColumn,
		UniqueColumn: st.UniqueColumn,
		Filters:      st.Filters,
		Sort:         st.Sort,
		Schema:       st.Schema,
		Metadata:     st.Metadata,
		Summary:      st.Summary(),
		Scales:       st.Scales,
		Total:        len(st.Rows),
		Matched:      len(st.View),
		Rows:         []rowResponse{},
	}

	rows := st.View
	if offset > len(rows) {
		offset = len(rows)
	}
	rows = rows[offset:]
	if limit >= 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	for _, row := range rows {
		resp.Rows = append(resp.Rows, rowResponse{
			Index:           row.Index,
			Status:          row.Status,
			ModifiedColumns: row.ModifiedColumns,
			Values:          row.Raw,
		})
	}
	return resp
}

func paging(r *http.Request) (offset, limit int, err error) {
	limit = -1
	q := r.URL.Query()
	if v := q.Get("offset"); v != "" {
		if offset, err = strconv.Atoi(v); err != nil || offset < 0 {
			return 0, 0, eris.New("offset must be a non-negative integer")
		}
	}
	if v := q.Get("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil || limit < 0 {
			return 0, 0, eris.New("limit must be a non-negative integer")
		}
	}
	return offset, limit, nil
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (s *Server) internalError(w http.ResponseWriter, action string, err error) {
	zap.L().Error("server: "+action, zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("server: encode response", zap.Error(err))
	}
}
