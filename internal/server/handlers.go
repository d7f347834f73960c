package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/matzehuels/genelim/pkg/buildinfo"
	gerrors "github.com/matzehuels/genelim/pkg/errors"
	"github.com/matzehuels/genelim/pkg/io"
	"github.com/matzehuels/genelim/pkg/peel"
	"github.com/matzehuels/genelim/pkg/pipeline"
	"github.com/matzehuels/genelim/pkg/render"
	"github.com/matzehuels/genelim/pkg/render/nodelink"
)

type request struct {
	Dataset *io.Dataset     `json:"dataset"`
	Options json.RawMessage `json:"options,omitempty"`
}

// decode reads the request body and merges its options over the server
// defaults.
func (s *Server) decode(w http.ResponseWriter, r *http.Request) (*io.Dataset, pipeline.Options, error) {
	opts := s.defaults
	body := r.Body
	if s.maxBody > 0 {
		body = http.MaxBytesReader(w, r.Body, s.maxBody)
	}
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()

	var req request
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, opts, gerrors.Wrap(gerrors.ErrCodeInvalidInput, err, "request body exceeds %d bytes", tooLarge.Limit)
		}
		return nil, opts, gerrors.Wrap(gerrors.ErrCodeInvalidFormat, err, "decode request")
	}
	if req.Dataset == nil {
		return nil, opts, gerrors.New(gerrors.ErrCodeInvalidInput, "request has no dataset")
	}
	if req.Dataset.Name == "" {
		req.Dataset.Name = "api"
	}
	if len(req.Options) > 0 {
		od := json.NewDecoder(bytes.NewReader(req.Options))
		od.DisallowUnknownFields()
		if err := od.Decode(&opts); err != nil {
			return nil, opts, gerrors.Wrap(gerrors.ErrCodeInvalidFormat, err, "decode options")
		}
	}
	return req.Dataset, opts, nil
}

func (s *Server) run(w http.ResponseWriter, r *http.Request) (*io.Dataset, *pipeline.Result, bool) {
	ds, opts, err := s.decode(w, r)
	if err != nil {
		s.writeError(w, err, nil)
		return nil, nil, false
	}
	res, err := s.newRunner().Run(r.Context(), ds, opts)
	if err != nil {
		s.writeError(w, err, res)
		return nil, nil, false
	}
	return ds, res, true
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Short(),
	})
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	_, res, ok := s.run(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type peelLocus struct {
	Locus     string           `json:"locus"`
	Sequences []*peel.Sequence `json:"sequences"`
	Error     string           `json:"error,omitempty"`
}

func (s *Server) handlePeel(w http.ResponseWriter, r *http.Request) {
	_, res, ok := s.run(w, r)
	if !ok {
		return
	}
	out := make([]peelLocus, 0, len(res.Loci))
	for _, lr := range res.Loci {
		pl := peelLocus{Locus: lr.Locus, Error: lr.Error}
		for _, c := range lr.Components {
			if c.Sequence != nil {
				pl.Sequences = append(pl.Sequences, c.Sequence)
			}
		}
		out = append(out, pl)
	}
	writeJSON(w, http.StatusOK, map[string]any{"run_id": res.RunID, "loci": out})
}

var contentTypes = map[string]string{
	render.FormatDOT: "text/vnd.graphviz",
	render.FormatSVG: "image/svg+xml",
	render.FormatPDF: "application/pdf",
	render.FormatPNG: "image/png",
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	format := q.Get("format")
	if format == "" {
		format = render.FormatSVG
	}
	if err := render.ValidateFormat(format); err != nil {
		s.writeError(w, err, nil)
		return
	}
	locus := q.Get("locus")
	if locus == "" {
		s.writeError(w, gerrors.New(gerrors.ErrCodeInvalidInput, "locus query parameter is required"), nil)
		return
	}
	scale := 2.0
	if v := q.Get("scale"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			s.writeError(w, gerrors.New(gerrors.ErrCodeInvalidInput, "invalid scale %q", v), nil)
			return
		}
		scale = f
	}

	ds, opts, err := s.decode(w, r)
	if err != nil {
		s.writeError(w, err, nil)
		return
	}
	opts.Loci = []string{locus}
	opts.Report = true
	res, err := s.newRunner().Run(r.Context(), ds, opts)
	if err != nil && res == nil {
		s.writeError(w, err, nil)
		return
	}
	lr := res.Locus(locus)
	if lr == nil {
		if err == nil {
			err = gerrors.New(gerrors.ErrCodeNotFound, "locus %s not in dataset", locus)
		}
		s.writeError(w, err, res)
		return
	}

	dot := nodelink.PedigreeDOT(res.Pedigree(), nodelink.LocusOptions(res.Pedigree(), lr, ds.Locus(locus).Genotypes))
	data, err := nodelink.Render(dot, format, scale)
	if err != nil {
		s.writeError(w, err, nil)
		return
	}
	w.Header().Set("Content-Type", contentTypes[format])
	_, _ = w.Write(data)
}
