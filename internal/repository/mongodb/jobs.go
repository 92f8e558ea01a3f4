package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/mamadbah2/fieldpay/internal/domain/models"
)

// InsertJobs stores newly ingested jobs.
func (r *MongoDBRepository) InsertJobs(ctx context.Context, jobs []models.Job) error {
	if len(jobs) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(jobs))
	for _, job := range jobs {
		docs = append(docs, job)
	}
	if _, err := r.collection(collJobs).InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert jobs: %w", err)
	}
	r.logger.Info("jobs inserted", zap.Int("count", len(jobs)))
	return nil
}

// PatchJobs applies a sparse update to the selected jobs and returns how many matched.
func (r *MongoDBRepository) PatchJobs(ctx context.Context, ids []string, patch models.JobPatch) (int64, error) {
	update := patchDocument(patch)
	if len(update) == 0 || len(ids) == 0 {
		return 0, nil
	}
	res, err := r.collection(collJobs).UpdateMany(ctx, bson.M{"_id": bson.M{"$in": ids}}, update)
	if err != nil {
		return 0, fmt.Errorf("patch jobs: %w", err)
	}
	return res.MatchedCount, nil
}

// ReassignJobs moves the selected jobs to another technician.
func (r *MongoDBRepository) ReassignJobs(ctx context.Context, ids []string, technicianID string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := r.collection(collJobs).UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		bson.M{"$set": bson.M{"technician_id": technicianID}})
	if err != nil {
		return 0, fmt.Errorf("reassign jobs to %s: %w", technicianID, err)
	}
	return res.MatchedCount, nil
}

// patchDocument builds the update for a JobPatch. A cleared override becomes
// $unset so the stored document has no rate_override field at all.
func patchDocument(patch models.JobPatch) bson.M {
	set := bson.M{}
	unset := bson.M{}

	if patch.Date != nil {
		set["date"] = *patch.Date
	}
	if patch.RateOverride != nil {
		if patch.RateOverride.Clear {
			unset["rate_override"] = ""
		} else {
			set["rate_override"] = patch.RateOverride.Rate
		}
	}
	if patch.AerialDrop != nil {
		if *patch.AerialDrop {
			set["aerial_drop"] = true
		} else {
			unset["aerial_drop"] = ""
		}
	}

	update := bson.M{}
	if len(set) > 0 {
		update["$set"] = set
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return update
}
