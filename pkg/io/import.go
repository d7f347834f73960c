package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	gerrors "github.com/matzehuels/genelim/pkg/errors"
)

// ReadJSON decodes a dataset from r. Unknown fields are rejected so that
// misspelt keys do not silently drop data. ReadJSON does not close r.
func ReadJSON(r io.Reader) (*Dataset, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var d Dataset
	if err := dec.Decode(&d); err != nil {
		return nil, gerrors.Wrap(gerrors.ErrCodeInvalidFormat, err, "decode dataset")
	}
	return &d, nil
}

// ReadTOML decodes a dataset from r.
func ReadTOML(r io.Reader) (*Dataset, error) {
	var d Dataset
	md, err := toml.NewDecoder(r).Decode(&d)
	if err != nil {
		return nil, gerrors.Wrap(gerrors.ErrCodeInvalidFormat, err, "decode dataset")
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		return nil, gerrors.New(gerrors.ErrCodeInvalidFormat, "unknown key %s", undec[0])
	}
	return &d, nil
}

// ImportJSON reads the JSON dataset at path.
func ImportJSON(path string) (*Dataset, error) {
	return importFile(path, ReadJSON)
}

// ImportTOML reads the TOML dataset at path.
func ImportTOML(path string) (*Dataset, error) {
	return importFile(path, ReadTOML)
}

// Import reads a dataset, choosing the decoder by extension: ".toml" is
// TOML, anything else JSON.
func Import(path string) (*Dataset, error) {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return ImportTOML(path)
	}
	return ImportJSON(path)
}

func importFile(path string, read func(io.Reader) (*Dataset, error)) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, gerrors.Wrap(gerrors.ErrCodeNotFound, err, "open %s", path)
	}
	defer f.Close()
	d, err := read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if d.Name == "" {
		d.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return d, nil
}
