package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/aretw0/promptflow"
	"github.com/aretw0/promptflow/internal/presentation/graph"
	"github.com/aretw0/promptflow/pkg/domain"
	"github.com/aretw0/promptflow/pkg/schema"
	"github.com/aretw0/promptflow/pkg/store"
)

func readBody(r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errBadRequest, err)
	}
	if len(data) > maxBodyBytes {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", errBadRequest, maxBodyBytes)
	}
	return data, nil
}

// decodeJSON decodes the body into v. An empty body is accepted when optional.
func decodeJSON(r *http.Request, v any, optional bool) error {
	data, err := readBody(r)
	if err != nil {
		return err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		if optional {
			return nil
		}
		return fmt.Errorf("%w: empty body", errBadRequest)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: invalid body: %w", errBadRequest, err)
	}
	return nil
}

func bodyFormat(r *http.Request) schema.Format {
	if strings.Contains(r.Header.Get("Content-Type"), "yaml") {
		return schema.FormatYAML
	}
	return schema.FormatJSON
}

// requireFlow answers 404 unless the flow is persisted.
func (s *Server) requireFlow(w http.ResponseWriter, r *http.Request) (string, bool) {
	name := chi.URLParam(r, "name")
	if err := domain.ValidateFlowName(name); err != nil {
		s.writeError(w, err)
		return "", false
	}
	ok, err := s.sessions.Exists(r.Context(), name)
	if err != nil {
		s.writeError(w, err)
		return "", false
	}
	if !ok {
		s.writeError(w, fmt.Errorf("%w: %s", domain.ErrFlowNotFound, name))
		return "", false
	}
	return name, true
}

// update runs fn on the editor of the flow and writes its result.
func (s *Server) update(w http.ResponseWriter, r *http.Request, status int, fn func(*store.Store) (any, error)) {
	var out any
	err := s.sessions.Update(r.Context(), chi.URLParam(r, "name"), func(st *store.Store) error {
		var err error
		out, err = fn(st)
		return err
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	if out == nil {
		w.WriteHeader(status)
		return
	}
	s.writeJSON(w, status, out)
}

func (s *Server) validateDocument(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	raw, err := schema.Unmarshal(data, bodyFormat(r))
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}

	s.writeJSON(w, http.StatusOK, promptflow.Validate(raw))
}

func (s *Server) listFlows(w http.ResponseWriter, r *http.Request) {
	names, err := s.sessions.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"flows": names})
}

func (s *Server) getFlow(w http.ResponseWriter, r *http.Request) {
	name, ok := s.requireFlow(w, r)
	if !ok {
		return
	}

	var doc schema.Document
	err := s.sessions.View(r.Context(), name, func(st *store.Store) error {
		doc = st.Document()
		return nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	format := schema.Format(r.URL.Query().Get("format"))
	if format != schema.FormatYAML {
		format = schema.FormatJSON
	}
	data, err := schema.Marshal(doc, format)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if format == schema.FormatYAML {
		w.Header().Set("Content-Type", "text/yaml")
	} else {
		w.Header().Set("Content-Type", "application/json")
	}
	w.Write(data)
}

func (s *Server) putFlow(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	doc, err := schema.ParseBytes(data, bodyFormat(r))
	if err != nil {
		if !errors.Is(err, domain.ErrInvalidDocument) {
			err = fmt.Errorf("%w: %w", errBadRequest, err)
		}
		s.writeError(w, err, schema.Messages(err)...)
		return
	}

	s.update(w, r, http.StatusOK, func(st *store.Store) (any, error) {
		if err := st.ImportDocument(r.Context(), doc); err != nil {
			return nil, err
		}
		return st.Snapshot(), nil
	})
}

func (s *Server) deleteFlow(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.Context(), chi.URLParam(r, "name")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getIssues(w http.ResponseWriter, r *http.Request) {
	name, ok := s.requireFlow(w, r)
	if !ok {
		return
	}

	var result domain.Result
	err := s.sessions.View(r.Context(), name, func(st *store.Store) error {
		result = st.Result()
		return nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) getGraph(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "mermaid"
	}
	if format != "mermaid" && format != string(graph.SVG) && format != string(graph.PNG) {
		s.writeError(w, fmt.Errorf("%w: unknown graph format %q", errBadRequest, format))
		return
	}

	name, ok := s.requireFlow(w, r)
	if !ok {
		return
	}

	var (
		doc    schema.Document
		result domain.Result
	)
	err := s.sessions.View(r.Context(), name, func(st *store.Store) error {
		doc = st.Document()
		result = st.Result()
		return nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	if format == "mermaid" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		io.WriteString(w, graph.GenerateMermaid(doc, graph.OverlayFromResult(result)))
		return
	}

	imageFormat := graph.ImageFormat(format)
	img, err := graph.RenderImage(r.Context(), doc, imageFormat)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", imageFormat.ContentType())
	w.Write(img)
}
