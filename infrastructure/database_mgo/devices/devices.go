package devices

import (
	"payments-system/domain/entities"
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
		collection: db.Database(databaseName).Collection("device_bindings"),
	}
}

func (r repoImpl) Upsert(binding entities.DeviceBinding) error {
	filter := bson.M{"device_id": binding.DeviceId, "card_id": binding.CardId}
	update := bson.M{"$set": binding}

	_, err := r.collection.UpdateOne(helpers.ContextWithTimeOut(), filter, update,
		options.Update().SetUpsert(true))
	return err
}

func (r repoImpl) FindById(deviceId string) (entities.DeviceBinding, error) {
	var binding entities.DeviceBinding
	err := r.collection.FindOne(helpers.ContextWithTimeOut(), bson.M{"device_id": deviceId}).Decode(&binding)
	return binding, err
}

func (r repoImpl) DeleteByCard(cardId string) error {
	_, err := r.collection.DeleteMany(helpers.ContextWithTimeOut(), bson.M{"card_id": cardId})
	return err
}
