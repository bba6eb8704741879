package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fintrack/internal/models"
	"fintrack/internal/service"
	"fintrack/internal/validation"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// quote is the last known price of a symbol.
type quote struct {
	Symbol    string          `bson:"_id"`
	Price     decimal.Decimal `bson:"price"`
	UpdatedAt time.Time       `bson:"updatedAt"`
}

type investmentService struct{ db *DB }

func (s *investmentService) coll() *mongo.Collection { return s.db.coll(collInvestments) }

func (s *investmentService) List(ctx context.Context) service.Result[[]models.Investment] {
	return service.Guard(func() service.Result[[]models.Investment] {
		opts := options.Find().SetSort(bson.D{{Key: "symbol", Value: 1}, {Key: "_id", Value: 1}})
		items, err := findAll[models.Investment](ctx, s.coll(), bson.M{}, opts)
		if err != nil {
			return service.Fail(fmt.Errorf("failed to fetch investments: %w", err), []models.Investment{})
		}
		return service.Ok(items)
	})
}

func (s *investmentService) Create(ctx context.Context, in models.InvestmentInput) service.Result[models.Investment] {
	return service.Guard(func() service.Result[models.Investment] {
		if err := validation.Investment(in).Err(); err != nil {
			return service.Err[models.Investment](service.Invalid(err))
		}
		inv := models.Investment{
			ID:           uuid.NewString(),
			Symbol:       in.Symbol,
			Name:         in.Name,
			Type:         in.Type,
			Shares:       in.Shares,
			CurrentPrice: in.CurrentPrice,
			TotalCost:    in.TotalCost,
			PurchaseDate: in.PurchaseDate,
			UpdatedAt:    s.db.now(),
		}
		if _, err := s.coll().InsertOne(ctx, inv); err != nil {
			return service.Err[models.Investment](fmt.Errorf("failed to insert investment: %w", err))
		}
		if err := s.saveQuote(ctx, inv.Symbol, inv.CurrentPrice, false); err != nil {
			s.db.log.Warn().Err(err).Str("symbol", inv.Symbol).Msg("failed to seed quote")
		}
		return service.Ok(inv)
	})
}

func (s *investmentService) Update(ctx context.Context, id string, p models.InvestmentPatch) service.Result[models.Investment] {
	return service.Guard(func() service.Result[models.Investment] {
		if err := validation.InvestmentPatch(p).Err(); err != nil {
			return service.Err[models.Investment](service.Invalid(err))
		}
		set := bson.M{"updatedAt": s.db.now()}
		if p.Name != nil {
			set["name"] = *p.Name
		}
		if p.Shares != nil {
			set["shares"] = *p.Shares
		}
		if p.CurrentPrice != nil {
			set["currentPrice"] = *p.CurrentPrice
		}
		if p.TotalCost != nil {
			set["totalCost"] = *p.TotalCost
		}
		var inv models.Investment
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		if err := s.coll().FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&inv); err != nil {
			return service.Err[models.Investment](fmt.Errorf("failed to update investment: %w", notFound(err, "investment", id)))
		}
		if p.CurrentPrice != nil {
			if err := s.saveQuote(ctx, inv.Symbol, *p.CurrentPrice, true); err != nil {
				s.db.log.Warn().Err(err).Str("symbol", inv.Symbol).Msg("failed to save quote")
			}
		}
		return service.Ok(inv)
	})
}

func (s *investmentService) Delete(ctx context.Context, id string) service.Result[string] {
	return service.Guard(func() service.Result[string] {
		res, err := s.coll().DeleteOne(ctx, bson.M{"_id": id})
		if err != nil {
			return service.Err[string](fmt.Errorf("failed to delete investment: %w", err))
		}
		if res.DeletedCount == 0 {
			return service.Err[string](service.NotFound("investment", id))
		}
		return service.Ok(id)
	})
}

// Quotes returns the stored price of each symbol; unknown symbols are omitted.
func (s *investmentService) Quotes(ctx context.Context, symbols []string) service.Result[map[string]decimal.Decimal] {
	return service.Guard(func() service.Result[map[string]decimal.Decimal] {
		prices := make(map[string]decimal.Decimal, len(symbols))
		if len(symbols) == 0 {
			return service.Ok(prices)
		}
		keys := make(bson.A, 0, len(symbols))
		requested := make(map[string]string, len(symbols))
		for _, sym := range symbols {
			key := strings.ToUpper(sym)
			keys = append(keys, key)
			requested[key] = sym
		}
		quotes, err := findAll[quote](ctx, s.db.coll(collQuotes), bson.M{"_id": bson.M{"$in": keys}})
		if err != nil {
			return service.Fail(fmt.Errorf("failed to fetch quotes: %w", err), prices)
		}
		for _, q := range quotes {
			prices[requested[q.Symbol]] = q.Price
		}
		return service.Ok(prices)
	})
}

// saveQuote stores price for symbol. Without overwrite an existing quote is kept.
func (s *investmentService) saveQuote(ctx context.Context, symbol string, price decimal.Decimal, overwrite bool) error {
	q := quote{Symbol: strings.ToUpper(symbol), Price: price, UpdatedAt: s.db.now()}
	op := "$setOnInsert"
	if overwrite {
		op = "$set"
	}
	update := bson.M{op: bson.M{"price": q.Price, "updatedAt": q.UpdatedAt}}
	_, err := s.db.coll(collQuotes).UpdateOne(ctx, bson.M{"_id": q.Symbol}, update, options.Update().SetUpsert(true))
	return err
}

// SetQuote records the market price of symbol.
func (db *DB) SetQuote(ctx context.Context, symbol string, price decimal.Decimal) error {
	s := &investmentService{db}
	if err := s.saveQuote(ctx, symbol, price, true); err != nil {
		return fmt.Errorf("failed to save quote: %w", err)
	}
	return nil
}
