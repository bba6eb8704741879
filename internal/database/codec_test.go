package database

import (
	"testing"

	"fintrack/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type priced struct {
	Price decimal.Decimal `bson:"price"`
}

func TestDecimalEncodesAsDecimal128(t *testing.T) {
	data, err := bson.MarshalWithRegistry(Registry(), priced{Price: decimal.RequireFromString("1374.04")})
	require.NoError(t, err)

	raw := bson.Raw(data).Lookup("price")
	assert.Equal(t, bsontype.Decimal128, raw.Type)
	assert.Equal(t, "1374.04", raw.Decimal128().String())
}

func TestDecimalDecodesNumericTypes(t *testing.T) {
	dec, err := primitive.ParseDecimal128("-45.30")
	require.NoError(t, err)

	tests := []struct {
		name string
		in   any
		want string
	}{
		{"decimal128", dec, "-45.3"},
		{"double", 12.5, "12.5"},
		{"int32", int32(7), "7"},
		{"int64", int64(1500), "1500"},
		{"string", "0.10", "0.1"},
		{"null", nil, "0"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			data, err := bson.Marshal(bson.M{"price": tt.in})
			require.NoError(t, err)

			var out priced
			require.NoError(t, bson.UnmarshalWithRegistry(Registry(), data, &out))
			assert.Equal(t, tt.want, out.Price.String())
		})
	}
}

func TestDecimalRejectsOtherTypes(t *testing.T) {
	data, err := bson.Marshal(bson.M{"price": true})
	require.NoError(t, err)

	var out priced
	assert.Error(t, bson.UnmarshalWithRegistry(Registry(), data, &out))
}

func TestTransactionDocumentKeepsAmount(t *testing.T) {
	in := models.Transaction{ID: "t1", Amount: decimal.RequireFromString("-89.99"), Category: "Shopping"}
	data, err := bson.MarshalWithRegistry(Registry(), in)
	require.NoError(t, err)

	assert.Equal(t, "t1", bson.Raw(data).Lookup("_id").StringValue())
	assert.Equal(t, bsontype.Decimal128, bson.Raw(data).Lookup("amount").Type)

	var out models.Transaction
	require.NoError(t, bson.UnmarshalWithRegistry(Registry(), data, &out))
	assert.True(t, in.Amount.Equal(out.Amount))
	assert.Equal(t, "Shopping", out.Category)
}
