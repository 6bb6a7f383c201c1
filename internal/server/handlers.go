package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/Sumatoshi-tech/slotgrid/pkg/render"
	"github.com/Sumatoshi-tech/slotgrid/pkg/schedule"
	"github.com/Sumatoshi-tech/slotgrid/pkg/timeslot"
)

const maxBodyBytes = 1 << 20

const (
	formatJSON = "json"
	formatText = "text"
	formatHTML = "html"
)

var (
	errMissingParam = errors.New("missing query parameter")
	errKeyMismatch  = errors.New("body key does not match path key")
	errBadBody      = errors.New("malformed request body")
	errBadFormat    = errors.New("unknown grid format")
)

type slotResponse struct {
	ID      timeslot.ID    `json:"id"`
	Outcome string         `json:"outcome,omitempty"`
	Entry   schedule.Entry `json:"entry"`
}

type listResponse struct {
	Slots []schedule.Entry `json:"slots"`
}

type gridResponse struct {
	Rows    [][]schedule.Placement `json:"rows"`
	Summary string                 `json:"summary"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleList(rw http.ResponseWriter, hr *http.Request) {
	label := hr.URL.Query().Get("label")
	if label == "" {
		s.writeJSON(hr.Context(), rw, http.StatusOK, listResponse{Slots: s.board.Entries()})

		return
	}

	var out []schedule.Entry

	for _, e := range s.board.Entries() {
		if e.Label == label {
			out = append(out, e)
		}
	}

	s.writeJSON(hr.Context(), rw, http.StatusOK, listResponse{Slots: out})
}

func (s *Server) handleGet(rw http.ResponseWriter, hr *http.Request) {
	key := hr.PathValue("key")

	e, id, ok := s.board.Get(key)
	if !ok {
		s.writeError(hr.Context(), rw, fmt.Errorf("%w: %q", schedule.ErrUnknownKey, key))

		return
	}

	s.writeJSON(hr.Context(), rw, http.StatusOK, slotResponse{ID: id, Entry: e})
}

func (s *Server) handleCreate(rw http.ResponseWriter, hr *http.Request) {
	var e schedule.Entry

	err := decodeBody(rw, hr, &e)
	if err != nil {
		s.writeError(hr.Context(), rw, err)

		return
	}

	s.put(rw, hr, e)
}

func (s *Server) handlePut(rw http.ResponseWriter, hr *http.Request) {
	key := hr.PathValue("key")

	var e schedule.Entry

	err := decodeBody(rw, hr, &e)
	if err != nil {
		s.writeError(hr.Context(), rw, err)

		return
	}

	switch e.Key {
	case "":
		e.Key = key
	case key:
	default:
		s.writeError(hr.Context(), rw, fmt.Errorf("%w: %q != %q", errKeyMismatch, e.Key, key))

		return
	}

	s.put(rw, hr, e)
}

func (s *Server) put(rw http.ResponseWriter, hr *http.Request, e schedule.Entry) {
	id, outcome, err := s.board.Put(hr.Context(), e)
	if err != nil {
		s.writeError(hr.Context(), rw, err)

		return
	}

	code := http.StatusOK
	if outcome == schedule.Added {
		code = http.StatusCreated
	}

	s.writeJSON(hr.Context(), rw, code, slotResponse{ID: id, Outcome: outcome.String(), Entry: e})
}

// handleReplace reconciles the board against a whole schedule document.
func (s *Server) handleReplace(rw http.ResponseWriter, hr *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(rw, hr.Body, maxBodyBytes))
	if err != nil {
		s.writeError(hr.Context(), rw, fmt.Errorf("%w: %w", errBadBody, err))

		return
	}

	doc, err := schedule.Parse(raw)
	if err != nil {
		s.writeError(hr.Context(), rw, err)

		return
	}

	stats, err := s.board.Reconcile(hr.Context(), doc.Slots)
	if err != nil {
		s.writeError(hr.Context(), rw, err)

		return
	}

	s.writeJSON(hr.Context(), rw, http.StatusOK, stats)
}

func (s *Server) handleDelete(rw http.ResponseWriter, hr *http.Request) {
	e, err := s.board.Delete(hr.Context(), hr.PathValue("key"))
	if err != nil {
		s.writeError(hr.Context(), rw, err)

		return
	}

	s.writeJSON(hr.Context(), rw, http.StatusOK, slotResponse{Entry: e})
}

func (s *Server) handleDeleteRange(rw http.ResponseWriter, hr *http.Request) {
	start, err := positionParam(hr, "start")
	if err != nil {
		s.writeError(hr.Context(), rw, err)

		return
	}

	end, err := positionParam(hr, "end")
	if err != nil {
		s.writeError(hr.Context(), rw, err)

		return
	}

	e, err := s.board.DeleteRange(hr.Context(), start, end)
	if err != nil {
		s.writeError(hr.Context(), rw, err)

		return
	}

	s.writeJSON(hr.Context(), rw, http.StatusOK, slotResponse{Entry: e})
}

// handleGrid lays the board out. With start and end it lays out only the
// slots intersecting that window. format selects json (default), text or html.
func (s *Server) handleGrid(rw http.ResponseWriter, hr *http.Request) {
	query := hr.URL.Query()

	var window *schedule.Window

	if query.Has("start") || query.Has("end") {
		start, err := positionParam(hr, "start")
		if err != nil {
			s.writeError(hr.Context(), rw, err)

			return
		}

		end, err := positionParam(hr, "end")
		if err != nil {
			s.writeError(hr.Context(), rw, err)

			return
		}

		window = &schedule.Window{Start: start, End: end}
	}

	rows, err := s.board.Grid(hr.Context(), window)
	if err != nil {
		s.writeError(hr.Context(), rw, err)

		return
	}

	switch format := query.Get("format"); format {
	case "", formatJSON:
		s.writeJSON(hr.Context(), rw, http.StatusOK, gridResponse{Rows: rows, Summary: render.Summary(rows)})
	case formatText:
		rw.Header().Set("Content-Type", "text/plain; charset=utf-8")

		opts := s.render
		opts.Color = false

		err = render.Text(rw, rows, opts)
	case formatHTML:
		rw.Header().Set("Content-Type", "text/html; charset=utf-8")

		err = render.HTML(rw, rows, s.render)
	default:
		s.writeError(hr.Context(), rw, fmt.Errorf("%w: %q", errBadFormat, format))
	}

	if err != nil {
		s.logger.WarnContext(hr.Context(), "write grid", "error", err)
	}
}

func (s *Server) handleAt(rw http.ResponseWriter, hr *http.Request) {
	pos, err := positionParam(hr, "pos")
	if err != nil {
		s.writeError(hr.Context(), rw, err)

		return
	}

	s.writeJSON(hr.Context(), rw, http.StatusOK, listResponse{Slots: s.board.At(pos)})
}

func positionParam(hr *http.Request, name string) (schedule.Position, error) {
	raw := hr.URL.Query().Get(name)
	if raw == "" {
		return 0, fmt.Errorf("%w: %s", errMissingParam, name)
	}

	pos, err := schedule.ParsePosition(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}

	return pos, nil
}

func decodeBody(rw http.ResponseWriter, hr *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(rw, hr.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		return fmt.Errorf("%w: %w", errBadBody, err)
	}

	return nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, schedule.ErrUnknownKey), errors.Is(err, timeslot.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errBadBody),
		errors.Is(err, errMissingParam),
		errors.Is(err, errKeyMismatch),
		errors.Is(err, errBadFormat),
		errors.Is(err, schedule.ErrInvalidDocument),
		errors.Is(err, schedule.ErrInvalidPosition),
		errors.Is(err, schedule.ErrEmptyKey),
		errors.Is(err, schedule.ErrReversedEntry):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(ctx context.Context, rw http.ResponseWriter, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		s.logger.ErrorContext(ctx, "request failed", "error", err)
	}

	s.writeJSON(ctx, rw, code, errorResponse{Error: err.Error()})
}

func (s *Server) writeJSON(ctx context.Context, rw http.ResponseWriter, code int, value any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(code)

	err := json.NewEncoder(rw).Encode(value)
	if err != nil {
		s.logger.DebugContext(ctx, "write response", "error", err)
	}
}
