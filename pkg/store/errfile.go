package store

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	gerrors "github.com/matzehuels/genelim/pkg/errors"
	"github.com/matzehuels/genelim/pkg/locate"
)

// ReadErrorFile parses "id sire dam" lines. Blank lines and lines starting
// with '#' are skipped.
func ReadErrorFile(r io.Reader) ([]locate.Suspect, error) {
	var out []locate.Suspect
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		f := strings.Fields(text)
		if len(f) != 3 {
			return nil, gerrors.New(gerrors.ErrCodeInvalidFormat, "error file line %d: want 3 fields, got %d", line, len(f))
		}
		out = append(out, locate.Suspect{ID: f[0], Sire: f[1], Dam: f[2]})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// WriteErrorFile writes one "id sire dam" line per suspect.
func WriteErrorFile(w io.Writer, suspects []locate.Suspect) error {
	bw := bufio.NewWriter(w)
	for _, s := range suspects {
		if _, err := fmt.Fprintf(bw, "%s %s %s\n", s.ID, s.Sire, s.Dam); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// FileStore keeps <dir>/<locus>.err error files. Only the suspects survive
// a round trip; the dataset name is not part of the path.
type FileStore struct {
	dir string
}

// NewFileStore creates dir if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, gerrors.Wrap(gerrors.ErrCodeStorage, err, "create %s", dir)
	}
	return &FileStore{dir: dir}, nil
}

// Path returns the error file of a locus.
func (s *FileStore) Path(locus string) string {
	return filepath.Join(s.dir, locus+".err")
}

func (s *FileStore) Load(_ context.Context, dataset, locus string) (*Diagnosis, error) {
	if err := gerrors.ValidateLocusName(locus); err != nil {
		return nil, err
	}
	f, err := os.Open(s.Path(locus))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, gerrors.Wrap(gerrors.ErrCodeStorage, err, "open error file")
	}
	defer f.Close()
	suspects, err := ReadErrorFile(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Path(locus), err)
	}
	return &Diagnosis{Dataset: dataset, Locus: locus, Suspects: suspects}, nil
}

// Save writes the error file. A diagnosis without suspects removes it.
func (s *FileStore) Save(_ context.Context, d *Diagnosis) error {
	if err := gerrors.ValidateLocusName(d.Locus); err != nil {
		return err
	}
	path := s.Path(d.Locus)
	if len(d.Suspects) == 0 {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return gerrors.Wrap(gerrors.ErrCodeStorage, err, "remove error file")
		}
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return gerrors.Wrap(gerrors.ErrCodeStorage, err, "create error file")
	}
	err = WriteErrorFile(f, d.Suspects)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return gerrors.Wrap(gerrors.ErrCodeStorage, err, "write error file")
	}
	return nil
}

func (s *FileStore) Close() error { return nil }

var _ Store = (*FileStore)(nil)
