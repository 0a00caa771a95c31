package tokens

import (
	"encoding/json"
	"sync"
	"time"

	"payments-system/domain/constants"
	"payments-system/domain/entities"
	"payments-system/domain/repositories"
	perrors "payments-system/errors"
	"payments-system/utils/crypt"
	"payments-system/utils/helpers"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type repoImpl struct {
	collection *mongo.Collection
	key        []byte
	devices    repositories.IDevice
	// defaultMu serializes the clear-then-set default switch so two racing
	// requests cannot leave two tokens marked default.
	defaultMu sync.Mutex
}

func NewRepository(db *mongo.Client, databaseName string, vaultKey []byte, devices repositories.IDevice) *repoImpl {
	return &repoImpl{
		collection: db.Database(databaseName).Collection("card_tokens"),
		key:        vaultKey,
		devices:    devices,
	}
}

func (r *repoImpl) Create(token entities.CardToken, payload entities.TokenPayload) (entities.CardToken, error) {
	plaintext, err := json.Marshal(payload)
	if err != nil {
		return entities.CardToken{}, err
	}

	sealed, err := crypt.SealAESGCM(plaintext, r.key)
	if err != nil {
		return entities.CardToken{}, err
	}

	token.EncryptedPayload = sealed
	token.Status = constants.TokenActive
	token.CreatedAt = time.Now().UTC()
	if token.DeviceBindings == nil {
		token.DeviceBindings = []string{}
	}

	if _, err := r.collection.InsertOne(helpers.ContextWithTimeOut(), token); err != nil {
		return entities.CardToken{}, err
	}

	if token.IsDefault {
		if err := r.SetDefault(token.Id, token.UserId, token.TenantId); err != nil {
			return entities.CardToken{}, err
		}
	}

	return token, nil
}

func (r *repoImpl) FindById(cardId, userId, tenantId string) (entities.CardToken, error) {
	var token entities.CardToken
	err := r.collection.FindOne(helpers.ContextWithTimeOut(),
		bson.M{"_id": cardId, "user_id": userId, "tenant_id": tenantId}).Decode(&token)
	if err == mongo.ErrNoDocuments {
		return entities.CardToken{}, perrors.NewTokenNotFoundError(cardId)
	}
	return token, err
}

func (r *repoImpl) List(userId, tenantId string) ([]entities.CardToken, error) {
	cursor, err := r.collection.Find(helpers.ContextWithTimeOut(),
		bson.M{"user_id": userId, "tenant_id": tenantId, "status": bson.M{"$ne": constants.TokenDeleted}})
	if err != nil {
		return nil, err
	}

	var tokens []entities.CardToken
	if err := cursor.All(helpers.ContextWithTimeOut(), &tokens); err != nil {
		return nil, err
	}
	return tokens, nil
}

// GetForTransaction returns the decrypted payload of an ACTIVE token,
// stamping last-used-at atomically with the read. Non-ACTIVE tokens are
// unavailable for transaction use.
func (r *repoImpl) GetForTransaction(cardId, userId, tenantId string) (entities.TokenPayload, entities.CardToken, error) {
	var token entities.CardToken
	err := r.collection.FindOneAndUpdate(helpers.ContextWithTimeOut(),
		bson.M{"_id": cardId, "user_id": userId, "tenant_id": tenantId, "status": constants.TokenActive},
		bson.M{"$set": bson.M{"last_used_at": time.Now().UTC()}},
	).Decode(&token)
	if err == mongo.ErrNoDocuments {
		return entities.TokenPayload{}, entities.CardToken{}, perrors.NewTokenNotFoundError(cardId)
	}
	if err != nil {
		return entities.TokenPayload{}, entities.CardToken{}, err
	}

	plaintext, err := crypt.OpenAESGCM(token.EncryptedPayload, r.key)
	if err != nil {
		return entities.TokenPayload{}, entities.CardToken{}, err
	}

	var payload entities.TokenPayload
	if err := json.Unmarshal(plaintext, &payload); err != nil {
		return entities.TokenPayload{}, entities.CardToken{}, err
	}

	return payload, token, nil
}

// OpenPayload decrypts a token's payload regardless of lifecycle status.
// Card lifecycle operations (suspend, resume, delete) need the network token
// reference for non-ACTIVE records; transaction paths must keep going through
// GetForTransaction.
func (r *repoImpl) OpenPayload(cardId, userId, tenantId string) (entities.TokenPayload, error) {
	token, err := r.FindById(cardId, userId, tenantId)
	if err != nil {
		return entities.TokenPayload{}, err
	}

	plaintext, err := crypt.OpenAESGCM(token.EncryptedPayload, r.key)
	if err != nil {
		return entities.TokenPayload{}, err
	}

	var payload entities.TokenPayload
	if err := json.Unmarshal(plaintext, &payload); err != nil {
		return entities.TokenPayload{}, err
	}
	return payload, nil
}

// SetDefault clears any existing default before setting the new one, as one
// logical unit of work.
func (r *repoImpl) SetDefault(cardId, userId, tenantId string) error {
	r.defaultMu.Lock()
	defer r.defaultMu.Unlock()

	_, err := r.collection.UpdateMany(helpers.ContextWithTimeOut(),
		bson.M{"user_id": userId, "tenant_id": tenantId, "is_default": true},
		bson.M{"$set": bson.M{"is_default": false}})
	if err != nil {
		return err
	}

	res, err := r.collection.UpdateOne(helpers.ContextWithTimeOut(),
		bson.M{"_id": cardId, "user_id": userId, "tenant_id": tenantId, "status": constants.TokenActive},
		bson.M{"$set": bson.M{"is_default": true}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return perrors.NewTokenNotFoundError(cardId)
	}
	return nil
}

// UpdateStatus transitions a token's status as a single atomic
// read-modify-write guarded by the allowed source states.
func (r *repoImpl) UpdateStatus(cardId, userId, tenantId string, from []constants.TokenStatus, to constants.TokenStatus) error {
	res, err := r.collection.UpdateOne(helpers.ContextWithTimeOut(),
		bson.M{"_id": cardId, "user_id": userId, "tenant_id": tenantId, "status": bson.M{"$in": from}},
		bson.M{"$set": bson.M{"status": to}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return perrors.NewTokenNotFoundError(cardId)
	}
	return nil
}

// Delete is terminal: the token moves to DELETED and every device binding
// it had is removed.
func (r *repoImpl) Delete(cardId, userId, tenantId string) error {
	err := r.UpdateStatus(cardId, userId, tenantId,
		[]constants.TokenStatus{constants.TokenActive, constants.TokenSuspended}, constants.TokenDeleted)
	if err != nil {
		return err
	}

	_, err = r.collection.UpdateOne(helpers.ContextWithTimeOut(),
		bson.M{"_id": cardId},
		bson.M{"$set": bson.M{"device_bindings": []string{}, "is_default": false}})
	if err != nil {
		return err
	}

	return r.devices.DeleteByCard(cardId)
}

func (r *repoImpl) AddDeviceBinding(cardId, userId, tenantId, deviceId string) error {
	res, err := r.collection.UpdateOne(helpers.ContextWithTimeOut(),
		bson.M{"_id": cardId, "user_id": userId, "tenant_id": tenantId, "status": constants.TokenActive},
		bson.M{"$addToSet": bson.M{"device_bindings": deviceId}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return perrors.NewTokenNotFoundError(cardId)
	}
	return nil
}

// IsDeviceBound is a pure membership check against the token's bound-device
// set. Callers preparing a transaction must consult it first.
func (r *repoImpl) IsDeviceBound(cardId, deviceId, userId, tenantId string) (bool, error) {
	token, err := r.FindById(cardId, userId, tenantId)
	if err != nil {
		return false, err
	}
	return helpers.IsStringSliceContains(token.DeviceBindings, deviceId), nil
}
