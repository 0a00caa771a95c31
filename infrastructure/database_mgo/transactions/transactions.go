package transactions

import (
	"payments-system/domain/entities"
	perrors "payments-system/errors"
	"payments-system/utils/helpers"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type repoImpl struct {
	collection *mongo.Collection
}

func NewRepository(db *mongo.Client, databaseName string) *repoImpl {
	return &repoImpl{
		collection: db.Database(databaseName).Collection("transactions"),
	}
}

// Save upserts on the internal reference so a status poll that re-normalizes
// the same transaction overwrites the stale row instead of duplicating it.
func (r repoImpl) Save(result entities.RailResult) error {
	_, err := r.collection.UpdateOne(helpers.ContextWithTimeOut(),
		bson.M{"_id": result.Reference},
		bson.M{"$set": result},
		options.Update().SetUpsert(true))
	return err
}

func (r repoImpl) FindByReference(reference string) (entities.RailResult, error) {
	var result entities.RailResult
	err := r.collection.FindOne(helpers.ContextWithTimeOut(), bson.M{"_id": reference}).Decode(&result)
	if err == mongo.ErrNoDocuments {
		return entities.RailResult{}, perrors.NewValidationError("no transaction found for reference %s", reference)
	}
	return result, err
}
