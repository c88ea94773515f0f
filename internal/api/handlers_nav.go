package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dgallion1/navcore/internal/appcontext"
	"github.com/dgallion1/navcore/internal/flatten"
	"github.com/dgallion1/navcore/internal/navtree"
	"github.com/dgallion1/navcore/internal/parser"
	"github.com/dgallion1/navcore/internal/secondary"
)

// decCookie is the cookie carrying the visitor's jurisdiction and segment.
const decCookie = "DEC"

var errTooLarge = errors.New("body too large")

// upload is a navigation source sent in a request, either as a JSON body or
// as the "file" field of a multipart form.
type upload struct {
	filename string
	data     []byte
}

func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (upload, int, error) {
	// Extra 1MB for form overhead.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		data, err := io.ReadAll(io.LimitReader(r.Body, s.cfg.MaxUploadBytes+1))
		if err != nil {
			return upload{}, http.StatusBadRequest, fmt.Errorf("read body: %w", err)
		}
		if int64(len(data)) > s.cfg.MaxUploadBytes {
			return upload{}, http.StatusRequestEntityTooLarge, errTooLarge
		}
		return upload{filename: "body.json", data: data}, http.StatusOK, nil
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return upload{}, http.StatusBadRequest, fmt.Errorf("invalid multipart form: %w", err)
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		return upload{}, http.StatusBadRequest, fmt.Errorf("file is required: %w", err)
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !parser.IsSupportedExtension(filename) {
		return upload{}, http.StatusBadRequest, fmt.Errorf("unsupported file type: %s", filepath.Ext(filename))
	}
	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return upload{}, http.StatusInternalServerError, errors.New("failed to read file")
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return upload{}, http.StatusRequestEntityTooLarge, errTooLarge
	}
	return upload{filename: filename, data: data}, http.StatusOK, nil
}

func (u upload) parse() (*navtree.Component, error) {
	p, err := parser.ForFile(u.filename)
	if err != nil {
		return nil, err
	}
	return p.Parse(bytes.NewReader(u.data), u.filename)
}

// flattenConfig reads max_depth and jurisdiction from the query, falling
// back to configuration and the DEC cookie.
func (s *Server) flattenConfig(r *http.Request) (flatten.Config, error) {
	cfg := flatten.Config{
		MaxDepth:       s.cfg.MaxDepth,
		LabelSeparator: s.cfg.LabelSeparator,
	}
	if v := r.URL.Query().Get("max_depth"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("max_depth must be an integer, got %q", v)
		}
		cfg.MaxDepth = n
	}
	ju, err := jurisdiction(r)
	if err != nil {
		return cfg, err
	}
	cfg.SelectedJurisdiction = ju
	return cfg, nil
}

func jurisdiction(r *http.Request) (string, error) {
	ju := strings.ToUpper(r.URL.Query().Get("jurisdiction"))
	if ju == "" {
		ju = appcontext.JurisdictionFromCookie(cookieValue(r, decCookie))
	}
	if ju != "" && !navtree.IsKnownJurisdiction(ju) {
		return "", fmt.Errorf("unknown jurisdiction %q", ju)
	}
	return ju, nil
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

type flattenResponse struct {
	Title string          `json:"title"`
	Count int             `json:"count"`
	Nodes []*flatten.Node `json:"nodes"`
}

func flattenComponent(c *navtree.Component, cfg flatten.Config) flattenResponse {
	nodes := flatten.Flatten(c.Items(), cfg)
	count := 0
	flatten.Walk(nodes, func(*flatten.Node) { count++ })
	title := ""
	if c != nil {
		title = c.Title
	}
	return flattenResponse{Title: title, Count: count, Nodes: nodes}
}

func (s *Server) handleFlatten(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.flattenConfig(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	up, code, err := s.readUpload(w, r)
	if err != nil {
		jsonError(w, err.Error(), code)
		return
	}
	c, err := up.parse()
	if err != nil {
		jsonError(w, "invalid navigation source: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, http.StatusOK, flattenComponent(c, cfg))
}

func (s *Server) handleSecondary(w http.ResponseWriter, r *http.Request) {
	ju, err := jurisdiction(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	q := r.URL.Query()
	req := secondary.Request{
		Jurisdiction: ju,
		Pathname:     q.Get("path"),
		Segment:      strings.ToUpper(q.Get("segment")),
	}
	if req.Pathname == "" {
		jsonError(w, "path query parameter is required", http.StatusBadRequest)
		return
	}
	if req.Segment == "" {
		req.Segment = appcontext.SegmentFromCookie(cookieValue(r, decCookie))
	}

	up, code, err := s.readUpload(w, r)
	if err != nil {
		jsonError(w, err.Error(), code)
		return
	}

	log := s.log.With("path", req.Pathname)
	// JSON goes through the fail-soft decoder so malformed CMS data yields
	// an empty navigation rather than an error.
	if strings.EqualFold(filepath.Ext(up.filename), ".json") {
		writeJSON(w, http.StatusOK, secondary.ResolveJSON(up.data, req, log))
		return
	}
	c, err := up.parse()
	if err != nil {
		jsonError(w, "invalid navigation source: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, http.StatusOK, secondary.Resolve(c, req, log))
}

type contextResponse struct {
	appcontext.Status
	JurisdictionChange *appcontext.JurisdictionChange `json:"jurisdictionChange,omitempty"`
}

// handleContext derives page status from a layout response. When the DEC
// cookie names a different jurisdiction than the layout, the change is
// reported so the caller can refresh jurisdiction-bound content.
func (s *Server) handleContext(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		jsonError(w, "path query parameter is required", http.StatusBadRequest)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	var rd appcontext.RouteData
	if err := json.NewDecoder(r.Body).Decode(&rd); err != nil {
		jsonError(w, "invalid layout: "+err.Error(), http.StatusBadRequest)
		return
	}

	dec := cookieValue(r, decCookie)
	st := appcontext.Build(&rd, path, appcontext.VisitorFromCookie(dec), s.log.With("path", path))
	resp := contextResponse{Status: st}

	tracker := appcontext.NewJurisdictionTracker()
	tracker.OnChange(func(c appcontext.JurisdictionChange) { resp.JurisdictionChange = &c })
	tracker.Observe(appcontext.JurisdictionFromCookie(dec))
	tracker.Observe(st.JurisdictionCode())

	writeJSON(w, http.StatusOK, resp)
}
