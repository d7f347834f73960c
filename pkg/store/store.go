// Package store persists locator results so that later runs can try the
// same suspects first.
//
// [FileStore] keeps one error file per locus, the line format shared with
// other pedigree tools. [SQLiteStore] and [MongoStore] keep the full
// diagnosis history, keyed by dataset and locus.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/genelim/pkg/locate"
)

// Diagnosis is one stored locator result.
type Diagnosis struct {
	RunID     string           `json:"run_id" bson:"run_id" db:"run_id"`
	Dataset   string           `json:"dataset" bson:"dataset" db:"dataset"`
	Locus     string           `json:"locus" bson:"locus" db:"locus"`
	Suspects  []locate.Suspect `json:"suspects" bson:"suspects" db:"-"`
	Typed     int              `json:"typed" bson:"typed" db:"typed"`
	Checks    int              `json:"checks" bson:"checks" db:"checks"`
	Version   string           `json:"version" bson:"version" db:"version"`
	CreatedAt time.Time        `json:"created_at" bson:"created_at" db:"created_at"`
}

// NewDiagnosis builds a Diagnosis from a locator result. A zero runID is
// replaced by a fresh UUID.
func NewDiagnosis(runID uuid.UUID, dataset string, res *locate.Result, version string) *Diagnosis {
	if runID == uuid.Nil {
		runID = uuid.New()
	}
	return &Diagnosis{
		RunID:     runID.String(),
		Dataset:   dataset,
		Locus:     res.Locus,
		Suspects:  res.Suspects(),
		Typed:     res.Typed,
		Checks:    res.Checks,
		Version:   version,
		CreatedAt: time.Now().UTC(),
	}
}

// Store loads and saves diagnoses.
type Store interface {
	// Load returns the latest diagnosis for a locus of a dataset, or nil
	// when none is stored.
	Load(ctx context.Context, dataset, locus string) (*Diagnosis, error)
	Save(ctx context.Context, d *Diagnosis) error
	Close() error
}

// Historian is implemented by stores that keep every diagnosis rather than
// only the latest one.
type Historian interface {
	History(ctx context.Context, dataset string) ([]Diagnosis, error)
}
