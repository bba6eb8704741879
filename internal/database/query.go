package database

import (
	"regexp"

	"fintrack/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultPageSize = 20

// matchNothing is a query no document satisfies.
var matchNothing = bson.M{"_id": bson.M{"$in": bson.A{}}}

// transactionQuery translates f into a MongoDB query with the same semantics
// as Filter.Match.
func transactionQuery(f models.Filter) bson.M {
	var and bson.A

	if !f.From.IsZero() || !f.To.IsZero() {
		date := bson.M{}
		if !f.From.IsZero() {
			date["$gte"] = f.From
		}
		if !f.To.IsZero() {
			date["$lte"] = f.To
		}
		and = append(and, bson.M{"date": date})
	}
	if f.Category != "" {
		and = append(and, bson.M{"category": primitive.Regex{Pattern: "^" + regexp.QuoteMeta(f.Category) + "$", Options: "i"}})
	}
	if f.Merchant != "" {
		and = append(and, bson.M{"merchant.name": primitive.Regex{Pattern: regexp.QuoteMeta(f.Merchant), Options: "i"}})
	}

	// amounts are signed, bounds apply to the magnitude
	if f.MinAmount != nil || f.MaxAmount != nil {
		pos, neg := bson.M{"$gt": 0}, bson.M{"$lt": 0}
		if f.MinAmount != nil {
			pos["$gte"] = *f.MinAmount
			neg["$lte"] = f.MinAmount.Neg()
		}
		if f.MaxAmount != nil {
			pos["$lte"] = *f.MaxAmount
			neg["$gte"] = f.MaxAmount.Neg()
		}
		and = append(and, bson.M{"$or": bson.A{bson.M{"amount": pos}, bson.M{"amount": neg}}})
	}

	switch f.Kind {
	case "":
	case models.KindIncome:
		and = append(and, bson.M{"amount": bson.M{"$gt": 0}})
	case models.KindExpense:
		and = append(and, bson.M{"amount": bson.M{"$lt": 0}})
	default:
		return matchNothing
	}

	if len(and) == 0 {
		return bson.M{}
	}
	return bson.M{"$and": and}
}

// pageOptions returns the normalised page and the find options selecting it,
// newest first.
func pageOptions(page models.PageRequest) (models.PageRequest, *options.FindOptions) {
	if page.Page < 1 {
		page.Page = 1
	}
	if page.PageSize <= 0 {
		page.PageSize = defaultPageSize
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: 1}}).
		SetSkip(int64((page.Page - 1) * page.PageSize)).
		SetLimit(int64(page.PageSize))
	return page, opts
}
