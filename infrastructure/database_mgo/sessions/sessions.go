package sessions

import (
	"time"

	"payments-system/domain/constants"
	"payments-system/domain/entities"
	perrors "payments-system/errors"
	"payments-system/utils/helpers"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type repoImpl struct {
	collection *mongo.Collection
}

func NewRepository(db *mongo.Client, databaseName string) *repoImpl {
	return &repoImpl{
		collection: db.Database(databaseName).Collection("tap_sessions"),
	}
}

func (r repoImpl) Create(session entities.TapToPaySession) error {
	_, err := r.collection.InsertOne(helpers.ContextWithTimeOut(), session)
	return err
}

func (r repoImpl) FindById(sessionId string) (entities.TapToPaySession, error) {
	var session entities.TapToPaySession
	err := r.collection.FindOne(helpers.ContextWithTimeOut(), bson.M{"_id": sessionId}).Decode(&session)
	if err == mongo.ErrNoDocuments {
		return entities.TapToPaySession{}, perrors.NewSessionExpiredError(sessionId)
	}
	return session, err
}

// Consume atomically flips a PENDING session to CONSUMED; a second attempt
// finds no PENDING document and is rejected. Expiry is evaluated here, on
// read; nothing sweeps sessions in the background.
func (r repoImpl) Consume(sessionId string, now time.Time) (entities.TapToPaySession, error) {
	var session entities.TapToPaySession
	err := r.collection.FindOneAndUpdate(helpers.ContextWithTimeOut(),
		bson.M{"_id": sessionId, "status": constants.SessionPending},
		bson.M{"$set": bson.M{"status": constants.SessionConsumed}},
	).Decode(&session)
	if err == mongo.ErrNoDocuments {
		return entities.TapToPaySession{}, perrors.NewSessionExpiredError(sessionId)
	}
	if err != nil {
		return entities.TapToPaySession{}, err
	}

	if session.IsExpiredAt(now) {
		_, _ = r.collection.UpdateOne(helpers.ContextWithTimeOut(),
			bson.M{"_id": sessionId},
			bson.M{"$set": bson.M{"status": constants.SessionExpired}})
		return entities.TapToPaySession{}, perrors.NewSessionExpiredError(sessionId)
	}

	session.Status = constants.SessionConsumed
	return session, nil
}
