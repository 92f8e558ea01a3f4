package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mamadbah2/fieldpay/internal/domain/models"
)

const (
	collJobs        = "jobs"
	collAdjustments = "adjustments"
	collRecurring   = "recurring_adjustments"
	collLoans       = "loans"
	collCategories  = "rate_categories"
	collUsers       = "users"
	collReports     = "payroll_reports"
)

// MongoDBRepository stores the live payroll collections and finalized reports.
type MongoDBRepository struct {
	client *mongo.Client
	dbName string
	logger *zap.Logger
}

// NewMongoDBRepository creates a new MongoDB repository.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string, logger *zap.Logger) (*MongoDBRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{
		client: client,
		dbName: dbName,
		logger: logger,
	}, nil
}

func (r *MongoDBRepository) collection(name string) *mongo.Collection {
	return r.client.Database(r.dbName).Collection(name)
}

// EnsureIndexes creates the secondary indexes the payroll queries rely on.
func (r *MongoDBRepository) EnsureIndexes(ctx context.Context) error {
	specs := map[string][]mongo.IndexModel{
		collJobs: {
			{Keys: bson.D{{Key: "technician_id", Value: 1}, {Key: "date", Value: 1}}},
			{Keys: bson.D{{Key: "work_order", Value: 1}, {Key: "task_code", Value: 1}}},
		},
		collAdjustments: {{Keys: bson.D{{Key: "technician_id", Value: 1}, {Key: "date", Value: 1}}}},
		collReports:     {{Keys: bson.D{{Key: "window_end", Value: -1}}}},
	}
	for coll, indexes := range specs {
		if _, err := r.collection(coll).Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	return nil
}

// LoadSnapshot reads every live collection into one snapshot.
func (r *MongoDBRepository) LoadSnapshot(ctx context.Context) (models.Snapshot, error) {
	var snap models.Snapshot
	loads := []struct {
		coll string
		dest interface{}
	}{
		{collJobs, &snap.Jobs},
		{collAdjustments, &snap.Adjustments},
		{collRecurring, &snap.Recurring},
		{collLoans, &snap.Loans},
		{collCategories, &snap.Categories},
		{collUsers, &snap.Users},
	}
	for _, l := range loads {
		if err := r.findAll(ctx, l.coll, bson.D{}, l.dest); err != nil {
			return models.Snapshot{}, err
		}
	}

	r.logger.Debug("snapshot loaded",
		zap.Int("jobs", len(snap.Jobs)),
		zap.Int("adjustments", len(snap.Adjustments)),
		zap.Int("users", len(snap.Users)))
	return snap, nil
}

func (r *MongoDBRepository) findAll(ctx context.Context, coll string, filter interface{}, dest interface{}, opts ...*options.FindOptions) error {
	cursor, err := r.collection(coll).Find(ctx, filter, opts...)
	if err != nil {
		return fmt.Errorf("find %s: %w", coll, err)
	}
	if err := cursor.All(ctx, dest); err != nil {
		return fmt.Errorf("decode %s: %w", coll, err)
	}
	return nil
}

// DeleteRateCategory removes a rate category. The caller checks that no user
// still references it.
func (r *MongoDBRepository) DeleteRateCategory(ctx context.Context, id string) error {
	inUse, err := r.collection(collUsers).CountDocuments(ctx, bson.M{"rate_category_id": id})
	if err != nil {
		return fmt.Errorf("count users of category %s: %w", id, err)
	}
	if err := categoryInUse(id, inUse); err != nil {
		return err
	}

	res, err := r.collection(collCategories).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete category %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("category %s: %w", id, models.ErrCategoryNotFound)
	}
	return nil
}

func categoryInUse(id string, assigned int64) error {
	if assigned == 0 {
		return nil
	}
	return fmt.Errorf("delete category %s: %w (%d users)", id, models.ErrCategoryInUse, assigned)
}

// ListReports returns the reports whose window ends in year, give or take a
// day so callers can apply their own time zone.
func (r *MongoDBRepository) ListReports(ctx context.Context, year int) ([]models.Report, error) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	to := time.Date(year+1, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)

	var reports []models.Report
	err := r.findAll(ctx, collReports,
		bson.M{"window_end": bson.M{"$gte": from, "$lt": to}},
		&reports,
		options.Find().SetSort(bson.D{{Key: "window_end", Value: 1}}))
	if err != nil {
		return nil, err
	}
	return reports, nil
}

// GetReport loads one finalized report.
func (r *MongoDBRepository) GetReport(ctx context.Context, id string) (models.Report, error) {
	var report models.Report
	err := r.collection(collReports).FindOne(ctx, bson.M{"_id": id}).Decode(&report)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Report{}, fmt.Errorf("report %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return models.Report{}, fmt.Errorf("load report %s: %w", id, err)
	}
	return report, nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
