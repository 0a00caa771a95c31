package mongoindex

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndex will ensure the index model provided is on the given collection.
func EnsureIndex(ctx context.Context, c *mongo.Collection, keys []bson.E, unique bool) error {
	ks := bson.D{}
	indexNames := []string{}
	for _, k := range keys {
		indexNames = append(indexNames, fmt.Sprintf("%v_%v", k.Key, k.Value))
		ks = append(ks, k)
	}
	idxoptions := &options.IndexOptions{}
	idxoptions.SetBackground(true)
	idxoptions.SetUnique(unique)
	idm := mongo.IndexModel{
		Keys:    ks,
		Options: idxoptions,
	}

	idxs := c.Indexes()
	cur, err := idxs.List(ctx)
	if err != nil {
		return err
	}

	indexName := strings.Join(indexNames, "_")
	found := false
	for cur.Next(ctx) {
		d := bson.D{}
		cur.Decode(&d)

		for _, v := range d {
			if v.Key == "name" && v.Value == indexName {
				found = true
				break
			}
		}

	}

	if found {
		return nil
	}

	_, err = idxs.CreateOne(ctx, idm)
	return err
}

// EnsurePaymentIndexes creates the indexes the payment collections query on.
// Called once at startup; existing indexes are left alone.
func EnsurePaymentIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := []struct {
		collection string
		keys       []bson.E
		unique     bool
	}{
		{"card_tokens", []bson.E{{Key: "tenant_id", Value: 1}, {Key: "user_id", Value: 1}}, false},
		{"card_tokens", []bson.E{{Key: "tenant_id", Value: 1}, {Key: "user_id", Value: 1}, {Key: "is_default", Value: 1}}, false},
		{"device_bindings", []bson.E{{Key: "device_id", Value: 1}, {Key: "card_id", Value: 1}}, true},
		{"tap_sessions", []bson.E{{Key: "status", Value: 1}, {Key: "expires_at", Value: 1}}, false},
		{"transactions", []bson.E{{Key: "tenant_id", Value: 1}, {Key: "timestamp", Value: -1}}, false},
		{"transactions", []bson.E{{Key: "rail_reference", Value: 1}}, false},
		{"audit_log", []bson.E{{Key: "tenant_id", Value: 1}, {Key: "recorded_at", Value: -1}}, false},
	}

	for _, idx := range indexes {
		if err := EnsureIndex(ctx, db.Collection(idx.collection), idx.keys, idx.unique); err != nil {
			return fmt.Errorf("ensure index on %s: %w", idx.collection, err)
		}
	}
	return nil
}
