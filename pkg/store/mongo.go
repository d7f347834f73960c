package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	gerrors "github.com/matzehuels/genelim/pkg/errors"
)

// MongoConfig configures OpenMongo.
type MongoConfig struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

func (c *MongoConfig) setDefaults() {
	if c.Database == "" {
		c.Database = "genelim"
	}
	if c.Collection == "" {
		c.Collection = "diagnoses"
	}
}

// MongoStore keeps diagnoses as documents, one per run and locus.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// OpenMongo connects, pings and ensures the lookup index exists.
func OpenMongo(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	cfg.setDefaults()
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, gerrors.Wrap(gerrors.ErrCodeStorage, err, "connect mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, gerrors.Wrap(gerrors.ErrCodeStorage, err, "ping mongo")
	}
	coll := client.Database(cfg.Database).Collection(cfg.Collection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "dataset", Value: 1}, {Key: "locus", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, gerrors.Wrap(gerrors.ErrCodeStorage, err, "create index")
	}
	return &MongoStore{client: client, coll: coll}, nil
}

// lookupFilter selects the diagnoses of one locus of a dataset.
func lookupFilter(dataset, locus string) bson.D {
	return bson.D{{Key: "dataset", Value: dataset}, {Key: "locus", Value: locus}}
}

func (s *MongoStore) Load(ctx context.Context, dataset, locus string) (*Diagnosis, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	var d Diagnosis
	err := s.coll.FindOne(ctx, lookupFilter(dataset, locus), opts).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, gerrors.Wrap(gerrors.ErrCodeStorage, err, "load diagnosis")
	}
	return &d, nil
}

func (s *MongoStore) Save(ctx context.Context, d *Diagnosis) error {
	filter := bson.D{{Key: "run_id", Value: d.RunID}, {Key: "locus", Value: d.Locus}}
	_, err := s.coll.ReplaceOne(ctx, filter, d, options.Replace().SetUpsert(true))
	if err != nil {
		return gerrors.Wrap(gerrors.ErrCodeStorage, err, "save diagnosis")
	}
	return nil
}

// History returns every stored diagnosis of a dataset, newest first,
// without suspects.
func (s *MongoStore) History(ctx context.Context, dataset string) ([]Diagnosis, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "locus", Value: 1}}).
		SetProjection(bson.D{{Key: "suspects", Value: 0}})
	cur, err := s.coll.Find(ctx, bson.D{{Key: "dataset", Value: dataset}}, opts)
	if err != nil {
		return nil, gerrors.Wrap(gerrors.ErrCodeStorage, err, "history")
	}
	var out []Diagnosis
	if err := cur.All(ctx, &out); err != nil {
		return nil, gerrors.Wrap(gerrors.ErrCodeStorage, err, "history")
	}
	return out, nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var (
	_ Store     = (*MongoStore)(nil)
	_ Historian = (*MongoStore)(nil)
)
