package audit

import (
	"time"

	"payments-system/domain/request_params"
	"payments-system/utils/helpers"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type repoImpl struct {
	collection *mongo.Collection
}

func NewRepository(db *mongo.Client, databaseName string) *repoImpl {
	return &repoImpl{
		collection: db.Database(databaseName).Collection("audit_log"),
	}
}

func (r repoImpl) Record(entry request_params.AuditEntry) error {
	doc := bson.M{
		"_id":           helpers.GetUUId(),
		"tenant_id":     entry.TenantId,
		"user_id":       entry.UserId,
		"action":        entry.Action,
		"resource_type": entry.ResourceType,
		"resource_id":   entry.ResourceId,
		"details":       entry.Details,
		"request_meta":  entry.RequestMeta,
		"recorded_at":   time.Now(),
	}
	_, err := r.collection.InsertOne(helpers.ContextWithTimeOut(), doc)
	return err
}
