// Package database implements the domain services on MongoDB.
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/service"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names.
const (
	collTransactions = "transactions"
	collArchives     = "monthly_archives"
	collBudgets      = "budgets"
	collGoals        = "goals"
	collInvestments  = "investments"
	collQuotes       = "quotes"
	collUsers        = "users"
	collSessions     = "sessions"
)

// DB wraps MongoDB operations
type DB struct {
	client *mongo.Client
	db     *mongo.Database
	issuer *auth.Issuer
	now    func() time.Time
	log    zerolog.Logger
}

// Option configures a DB.
type Option func(*DB)

// WithIssuer sets the session token issuer.
func WithIssuer(i *auth.Issuer) Option {
	return func(db *DB) { db.issuer = i }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(db *DB) { db.log = l.With().Str("component", "database").Logger() }
}

// WithClock sets the time source of timestamps.
func WithClock(now func() time.Time) Option {
	return func(db *DB) { db.now = now }
}

// New creates a new database connection
func New(ctx context.Context, uri, dbName string, opts ...Option) (*DB, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetRegistry(Registry()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err = client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := &DB{
		client: client,
		db:     client.Database(dbName),
		now:    time.Now,
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(db)
	}
	if db.issuer == nil {
		_ = client.Disconnect(ctx)
		return nil, errors.New("database: a token issuer is required")
	}
	db.issuer = db.issuer.WithClock(db.now)

	if err := db.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	db.log.Info().Str("db", dbName).Msg("connected to MongoDB")
	return db, nil
}

// Close closes the database connection
func (db *DB) Close(ctx context.Context) error {
	return db.client.Disconnect(ctx)
}

// Services returns the domain services backed by db.
func (db *DB) Services() service.Services {
	return service.Services{
		Auth:         &authService{db},
		Transactions: &transactionService{db},
		Budgets:      &budgetService{db},
		Investments:  &investmentService{db},
	}
}

func (db *DB) coll(name string) *mongo.Collection {
	return db.db.Collection(name)
}

func (db *DB) ensureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		collUsers: {{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		collSessions: {{
			Keys:    bson.D{{Key: "expiresAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		}},
		collTransactions: {
			{Keys: bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: 1}}},
			{Keys: bson.D{{Key: "category", Value: 1}}},
		},
		collGoals: {{Keys: bson.D{{Key: "targetDate", Value: 1}}}},
	}
	for name, idx := range indexes {
		if _, err := db.coll(name).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
	}
	return nil
}

// notFound maps mongo.ErrNoDocuments to service.ErrNotFound.
func notFound(err error, kind, id string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return service.NotFound(kind, id)
	}
	return err
}

// findAll decodes every document of a cursor.
func findAll[T any](ctx context.Context, c *mongo.Collection, filter any, opts ...*options.FindOptions) ([]T, error) {
	cursor, err := c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := make([]T, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// findByID decodes the document with the given id.
func findByID[T any](ctx context.Context, c *mongo.Collection, kind, id string) (T, error) {
	var v T
	err := c.FindOne(ctx, bson.M{"_id": id}).Decode(&v)
	return v, notFound(err, kind, id)
}
