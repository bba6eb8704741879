package database

import (
	"context"
	"fmt"
	"time"

	"fintrack/internal/models"
	"fintrack/internal/service"
	"fintrack/internal/validation"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type transactionService struct{ db *DB }

func (s *transactionService) coll() *mongo.Collection { return s.db.coll(collTransactions) }

func (s *transactionService) List(ctx context.Context, f models.Filter, page models.PageRequest) service.Result[models.TransactionPage] {
	return service.Guard(func() service.Result[models.TransactionPage] {
		query := transactionQuery(f)
		page, opts := pageOptions(page)
		total, err := s.coll().CountDocuments(ctx, query)
		if err != nil {
			return service.Err[models.TransactionPage](fmt.Errorf("failed to count transactions: %w", err))
		}
		items, err := findAll[models.Transaction](ctx, s.coll(), query, opts)
		if err != nil {
			return service.Err[models.TransactionPage](fmt.Errorf("failed to fetch transactions: %w", err))
		}
		return service.Ok(models.TransactionPage{
			Items:    items,
			Page:     page.Page,
			PageSize: page.PageSize,
			Total:    int(total),
			HasMore:  int64(page.Page*page.PageSize) < total,
		})
	})
}

func (s *transactionService) Get(ctx context.Context, id string) service.Result[models.Transaction] {
	return service.Guard(func() service.Result[models.Transaction] {
		tx, err := findByID[models.Transaction](ctx, s.coll(), "transaction", id)
		if err != nil {
			return service.Err[models.Transaction](fmt.Errorf("failed to find transaction: %w", err))
		}
		return service.Ok(tx)
	})
}

func (s *transactionService) Create(ctx context.Context, in models.TransactionInput) service.Result[models.Transaction] {
	return service.Guard(func() service.Result[models.Transaction] {
		now := s.db.now()
		if err := validation.Transaction(in, now).Err(); err != nil {
			return service.Err[models.Transaction](service.Invalid(err))
		}
		tx := models.NewTransaction(uuid.NewString(), in)
		tx.CreatedAt, tx.UpdatedAt = now, now
		if _, err := s.coll().InsertOne(ctx, tx); err != nil {
			return service.Err[models.Transaction](fmt.Errorf("failed to insert transaction: %w", err))
		}
		return service.Ok(tx)
	})
}

func (s *transactionService) Update(ctx context.Context, id string, p models.TransactionPatch) service.Result[models.Transaction] {
	return service.Guard(func() service.Result[models.Transaction] {
		now := s.db.now()
		if err := validation.TransactionPatch(p, now).Err(); err != nil {
			return service.Err[models.Transaction](service.Invalid(err))
		}
		set := transactionSet(p)
		set["updatedAt"] = now
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

		var tx models.Transaction
		err := s.coll().FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&tx)
		if err != nil {
			return service.Err[models.Transaction](fmt.Errorf("failed to update transaction: %w", notFound(err, "transaction", id)))
		}
		return service.Ok(tx)
	})
}

// transactionSet returns the $set document of the fields present in p.
func transactionSet(p models.TransactionPatch) bson.M {
	set := bson.M{}
	if p.Amount != nil {
		set["amount"] = *p.Amount
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.Category != nil {
		set["category"] = *p.Category
	}
	if p.Merchant != nil {
		set["merchant"] = *p.Merchant
	}
	if p.Date != nil {
		set["date"] = *p.Date
	}
	if p.Status != nil {
		set["status"] = *p.Status
	}
	if p.Tags != nil {
		set["tags"] = p.Tags
	}
	if p.Notes != nil {
		set["notes"] = *p.Notes
	}
	return set
}

func (s *transactionService) Delete(ctx context.Context, id string) service.Result[string] {
	return service.Guard(func() service.Result[string] {
		res, err := s.coll().DeleteOne(ctx, bson.M{"_id": id})
		if err != nil {
			return service.Err[string](fmt.Errorf("failed to delete transaction: %w", err))
		}
		if res.DeletedCount == 0 {
			return service.Err[string](service.NotFound("transaction", id))
		}
		return service.Ok(id)
	})
}

// Archive computes the archive of the month containing month and stores it,
// replacing an earlier archive of the same month.
func (s *transactionService) Archive(ctx context.Context, month time.Time) service.Result[models.MonthlyArchive] {
	return service.Guard(func() service.Result[models.MonthlyArchive] {
		if month.IsZero() {
			return service.Err[models.MonthlyArchive](fmt.Errorf("%w: month is required", service.ErrInvalidInput))
		}
		start := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, month.Location())
		query := bson.M{"date": bson.M{"$gte": start, "$lt": start.AddDate(0, 1, 0)}}
		opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: 1}})
		transactions, err := findAll[models.Transaction](ctx, s.coll(), query, opts)
		if err != nil {
			return service.Err[models.MonthlyArchive](fmt.Errorf("failed to get transactions for archive: %w", err))
		}

		archive := models.NewMonthlyArchive(month, transactions, s.db.now())
		if archive.TotalTransactions == 0 {
			return service.Err[models.MonthlyArchive](fmt.Errorf("no transactions to archive for %s", archive.ID))
		}

		// upsert to handle re-runs
		replace := options.Replace().SetUpsert(true)
		if _, err := s.db.coll(collArchives).ReplaceOne(ctx, bson.M{"_id": archive.ID}, archive, replace); err != nil {
			return service.Err[models.MonthlyArchive](fmt.Errorf("failed to save monthly archive: %w", err))
		}
		return service.Ok(archive)
	})
}

// Archives returns the most recent archives, newest month first.
func (s *transactionService) Archives(ctx context.Context, limit int) service.Result[[]models.MonthlyArchive] {
	return service.Guard(func() service.Result[[]models.MonthlyArchive] {
		opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}})
		if limit > 0 {
			opts = opts.SetLimit(int64(limit))
		}
		archives, err := findAll[models.MonthlyArchive](ctx, s.db.coll(collArchives), bson.M{}, opts)
		if err != nil {
			return service.Fail(fmt.Errorf("failed to fetch recent archives: %w", err), []models.MonthlyArchive{})
		}
		return service.Ok(archives)
	})
}
