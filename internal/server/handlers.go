package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/keygraph/pkg/buildinfo"
	"github.com/matzehuels/keygraph/pkg/depgraph"
	kerrors "github.com/matzehuels/keygraph/pkg/errors"
	kgio "github.com/matzehuels/keygraph/pkg/io"
	"github.com/matzehuels/keygraph/pkg/render/dot"
	"github.com/matzehuels/keygraph/pkg/serial"
	"github.com/matzehuels/keygraph/pkg/store"
)

// DocumentInfo describes a stored document after it was read.
type DocumentInfo struct {
	Name        string `json:"name"`
	Root        string `json:"root"`
	Objects     int    `json:"objects"`
	FileVersion int    `json:"file_version"`
	Upgraded    bool   `json:"upgraded"`
	Unparented  int    `json:"unparented,omitempty"`
}

// TreeResponse is the body of GET /documents/{name}/tree.
type TreeResponse struct {
	DocumentInfo
	Tree []*kgio.TreeNode `json:"tree"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "build": buildinfo.Get()})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	docs, err := s.docs.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if docs == nil {
		docs = []store.Info{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBytes))
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := s.serializer.Read(r.Context(), bytes.NewReader(data))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.docs.Put(r.Context(), name, data); err != nil {
		writeError(w, err)
		return
	}
	s.logger.Debug("document stored", "name", name, "root", res.RootPath, "objects", res.Objects)
	writeJSON(w, http.StatusCreated, info(name, res))
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	data, err := s.docs.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	_, _ = w.Write(data)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.docs.Delete(r.Context(), chi.URLParam(r, "name")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	res, e, err := s.graph(r, depgraph.IntentSerialize)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, TreeResponse{DocumentInfo: info(name, res), Tree: kgio.Tree(e)})
}

func (s *Server) handleGraphJSON(w http.ResponseWriter, r *http.Request) {
	intent, err := intentParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	_, e, err := s.graph(r, intent)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, kgio.FromEngine(e))
}

func (s *Server) handleGraphSVG(w http.ResponseWriter, r *http.Request) {
	intent, err := intentParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	_, e, err := s.graph(r, intent)
	if err != nil {
		writeError(w, err)
		return
	}
	svg, err := dot.RenderSVG(r.Context(), dot.ToDOT(e, dot.Options{Detailed: r.URL.Query().Has("detailed")}))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(svg)
}

// graph reads the named document and discovers its dependency graph.
func (s *Server) graph(r *http.Request, intent depgraph.Intent) (*serial.Result, *depgraph.Engine, error) {
	ctx := r.Context()
	data, err := s.docs.Get(ctx, chi.URLParam(r, "name"))
	if err != nil {
		return nil, nil, err
	}
	res, err := s.serializer.Read(ctx, bytes.NewReader(data))
	if err != nil {
		return nil, nil, err
	}
	e, err := depgraph.Build(ctx, intent, res.Roots(),
		depgraph.WithMode(depgraph.ModeFull), depgraph.WithLogger(s.logger))
	if err != nil {
		return nil, nil, err
	}
	return res, e, nil
}

func intentParam(r *http.Request) (depgraph.Intent, error) {
	v := r.URL.Query().Get("intent")
	if v == "" {
		return depgraph.IntentCreate, nil
	}
	intent, ok := depgraph.ParseIntent(v)
	if !ok {
		return 0, kerrors.New(kerrors.ErrCodeInvalidInput, "unknown intent %q", v)
	}
	return intent, nil
}

func info(name string, res *serial.Result) DocumentInfo {
	return DocumentInfo{
		Name:        name,
		Root:        res.RootPath,
		Objects:     res.Objects,
		FileVersion: res.FileVersion,
		Upgraded:    res.Upgraded,
		Unparented:  len(res.Unparented),
	}
}

// statusOf maps an error to its HTTP status.
func statusOf(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	switch kerrors.GetCode(err) {
	case kerrors.ErrCodeNotFound:
		return http.StatusNotFound
	case kerrors.ErrCodeInvalidInput, kerrors.ErrCodeInvalidIdentity:
		return http.StatusBadRequest
	case kerrors.ErrCodeSerialization,
		kerrors.ErrCodeUnsupportedVersion,
		kerrors.ErrCodeUnsupportedUpgrade,
		kerrors.ErrCodeMissingParent,
		kerrors.ErrCodeDuplicatePath,
		kerrors.ErrCodeNonSerializableType,
		kerrors.ErrCodeNonSerializableProperty:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	body := map[string]any{"error": kerrors.UserMessage(err)}
	if code := kerrors.GetCode(err); code != "" {
		body["code"] = code
	}
	if status == http.StatusInternalServerError {
		body["error"] = http.StatusText(status)
	}
	writeJSON(w, status, body)
}
