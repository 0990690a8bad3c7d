package db

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Daunte502/RNG/internal/domain"
	"github.com/Daunte502/RNG/internal/metrics"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

const (
	DatabaseName   = "ELET2415"
	CollectionName = "update"

	DefaultTimeout = 10 * time.Second
)

const (
	opRecord          = "record"
	opFrequencyReport = "frequency_report"
	opOnCount         = "on_count"
)

// updateCollection is the subset of *mongo.Collection the store needs.
type updateCollection interface {
	InsertOne(ctx context.Context, document any, opts ...options.Lister[options.InsertOneOptions]) (*mongo.InsertOneResult, error)
	Aggregate(ctx context.Context, pipeline any, opts ...options.Lister[options.AggregateOptions]) (*mongo.Cursor, error)
	CountDocuments(ctx context.Context, filter any, opts ...options.Lister[options.CountOptions]) (int64, error)
}

type MongoUpdateStore struct {
	client     *mongo.Client
	collection updateCollection
	logger     *slog.Logger
	metrics    *metrics.Metrics
	timeout    time.Duration
}

type StoreOption func(*MongoUpdateStore)

func WithLogger(logger *slog.Logger) StoreOption {
	return func(m *MongoUpdateStore) {
		if logger != nil {
			m.logger = logger
		}
	}
}

func WithMetrics(mt *metrics.Metrics) StoreOption {
	return func(m *MongoUpdateStore) {
		m.metrics = mt
	}
}

// WithTimeout bounds every operation. Non-positive values keep the default.
func WithTimeout(d time.Duration) StoreOption {
	return func(m *MongoUpdateStore) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// NewMongoConnection builds a client for cfg. The driver connects lazily, so
// an unreachable server is only logged here and surfaces on the first call.
func NewMongoConnection(ctx context.Context, cfg MongoConfig, logger *slog.Logger) (*mongo.Client, error) {
	opts := options.Client().ApplyURI(ConnectionString(cfg))
	if cfg.TLS {
		opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil && logger != nil {
		logger.Warn("MongoDB ping failed", "server", cfg.Server, "port", cfg.Port, "error", err)
	}

	return client, nil
}

func NewUpdateStore(client *mongo.Client, opts ...StoreOption) *MongoUpdateStore {
	store := newUpdateStore(client.Database(DatabaseName).Collection(CollectionName), opts...)
	store.client = client
	return store
}

func newUpdateStore(collection updateCollection, opts ...StoreOption) *MongoUpdateStore {
	store := &MongoUpdateStore{
		collection: collection,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		timeout:    DefaultTimeout,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Record inserts one update. Duplicate-key rejections return false silently;
// every other failure is logged before returning false.
func (m *MongoUpdateStore) Record(ctx context.Context, update domain.Update) bool {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	start := time.Now()
	_, err := m.collection.InsertOne(ctx, update)
	m.metrics.ObserveDuration(opRecord, time.Since(start).Seconds())

	if err != nil {
		if m.fail(opRecord, err).Class == ErrDuplicateWrite {
			m.metrics.RecordOutcome(metrics.OutcomeDuplicate)
		} else {
			m.metrics.RecordOutcome(metrics.OutcomeError)
		}
		return false
	}

	m.metrics.RecordOutcome(metrics.OutcomeOK)
	return true
}

// FrequencyReport counts updates per distinct number, ascending by number.
// No stored updates yields an empty, non-nil slice and a nil error.
func (m *MongoUpdateStore) FrequencyReport(ctx context.Context) ([]domain.NumberFrequency, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	start := time.Now()
	defer func() { m.metrics.ObserveDuration(opFrequencyReport, time.Since(start).Seconds()) }()

	cursor, err := m.collection.Aggregate(ctx, frequencyPipeline())
	if err != nil {
		return nil, m.fail(opFrequencyReport, err)
	}
	defer cursor.Close(ctx)

	results := make([]domain.NumberFrequency, 0)
	if err := cursor.All(ctx, &results); err != nil {
		return nil, m.fail(opFrequencyReport, err)
	}
	if results == nil {
		results = []domain.NumberFrequency{}
	}

	return results, nil
}

// OnCount returns how many updates have field set to 1.
func (m *MongoUpdateStore) OnCount(ctx context.Context, field string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	start := time.Now()
	count, err := m.collection.CountDocuments(ctx, onFilter(field))
	m.metrics.ObserveDuration(opOnCount, time.Since(start).Seconds())

	if err != nil {
		return 0, m.fail(opOnCount, err)
	}
	return count, nil
}

func (m *MongoUpdateStore) Close() error {
	if m.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

func (m *MongoUpdateStore) fail(op string, err error) *OpError {
	class := classify(err)
	if class != ErrDuplicateWrite {
		m.logger.Error("store operation failed", "op", op, "class", className(class), "error", err)
		m.metrics.OperationFailed(op, className(class))
	}
	return &OpError{Op: op, Class: class, Err: err}
}

func frequencyPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$number"},
			{Key: "frequency", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "number", Value: "$_id"},
			{Key: "frequency", Value: 1},
		}}},
	}
}

func onFilter(field string) bson.D {
	return bson.D{{Key: field, Value: bson.D{{Key: "$eq", Value: 1}}}}
}

var _ domain.UpdateStore = (*MongoUpdateStore)(nil)
