package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/mamadbah2/fieldpay/internal/domain/models"
)

// ApplyFinalize writes the report, removes the consumed jobs and adjustments
// and books loan payments in one transaction. A report id that already exists
// aborts the transaction with models.ErrAlreadyFinalized and changes nothing.
func (r *MongoDBRepository) ApplyFinalize(ctx context.Context, req models.FinalizeRequest) error {
	session, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, r.applyFinalize(sc, req)
	})
	if err != nil {
		if errors.Is(err, models.ErrAlreadyFinalized) {
			r.logger.Info("report already stored, finalize skipped", zap.String("report_id", req.Report.ID))
		}
		return err
	}

	r.logger.Info("finalize applied",
		zap.String("report_id", req.Report.ID),
		zap.Int("jobs_removed", len(req.ConsumedJobIDs)),
		zap.Int("adjustments_removed", len(req.ConsumedAdjustmentIDs)),
		zap.Int("loan_payments", len(req.LoanPayments)))
	return nil
}

func (r *MongoDBRepository) applyFinalize(ctx context.Context, req models.FinalizeRequest) error {
	reports := r.collection(collReports)
	err := reports.FindOne(ctx, bson.M{"_id": req.Report.ID}).Err()
	switch {
	case err == nil:
		return fmt.Errorf("report %s: %w", req.Report.ID, models.ErrAlreadyFinalized)
	case !errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("check report %s: %w", req.Report.ID, err)
	}

	if _, err := reports.InsertOne(ctx, req.Report); err != nil {
		return fmt.Errorf("insert report: %w", err)
	}

	if len(req.ConsumedJobIDs) > 0 {
		if _, err := r.collection(collJobs).DeleteMany(ctx, bson.M{"_id": bson.M{"$in": req.ConsumedJobIDs}}); err != nil {
			return fmt.Errorf("remove consumed jobs: %w", err)
		}
	}
	if len(req.ConsumedAdjustmentIDs) > 0 {
		if _, err := r.collection(collAdjustments).DeleteMany(ctx, bson.M{"_id": bson.M{"$in": req.ConsumedAdjustmentIDs}}); err != nil {
			return fmt.Errorf("remove consumed adjustments: %w", err)
		}
	}

	if len(req.LoanPayments) == 0 {
		return nil
	}
	loans := r.collection(collLoans)
	loanIDs := make([]string, 0, len(req.LoanPayments))
	for _, p := range req.LoanPayments {
		loanIDs = append(loanIDs, p.LoanID)
		if _, err := loans.UpdateOne(ctx, bson.M{"_id": p.LoanID}, bson.M{"$inc": bson.M{"remaining": -p.Amount}}); err != nil {
			return fmt.Errorf("book payment on loan %s: %w", p.LoanID, err)
		}
	}
	_, err = loans.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": loanIDs}, "remaining": bson.M{"$lte": 0}},
		bson.M{"$set": bson.M{"remaining": 0, "active": false}})
	if err != nil {
		return fmt.Errorf("close repaid loans: %w", err)
	}
	return nil
}
