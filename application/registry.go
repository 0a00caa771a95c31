package application

import (
	"sync"

	"payments-system/domain/repositories"
	"payments-system/infrastructure/firebase"
	"payments-system/utils/configs"
	"payments-system/utils/gpooling"
	"payments-system/utils/telegram"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Registry owns the per-tenant application instances. Two racing requests
// for a never-seen tenant are serialized by the mutex: the loser reuses the
// winner's instance instead of building a duplicate.
type Registry struct {
	mu   sync.Mutex
	apps map[string]*PaymentApplication

	config   *configs.Config
	logger   *zap.Logger
	pool     gpooling.IPool
	db       *mongo.Client
	events   repositories.IEventStream
	mqtt     repositories.IMqtt
	firebase firebase.IFirebase
	alerts   *telegram.Notifier
}

func NewRegistry(
	config *configs.Config,
	logger *zap.Logger,
	pool gpooling.IPool,
	db *mongo.Client,
	events repositories.IEventStream,
	mqttRepo repositories.IMqtt,
	fcm firebase.IFirebase,
	alerts *telegram.Notifier,
) *Registry {
	return &Registry{
		apps:     make(map[string]*PaymentApplication),
		config:   config,
		logger:   logger,
		pool:     pool,
		db:       db,
		events:   events,
		mqtt:     mqttRepo,
		firebase: fcm,
		alerts:   alerts,
	}
}

// Get returns the tenant's application, building it on first use.
func (r *Registry) Get(tenantId string) (*PaymentApplication, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if app, ok := r.apps[tenantId]; ok {
		return app, nil
	}

	app, err := NewPaymentApplication(tenantId, r.config, r.logger, r.pool,
		r.db, r.events, r.mqtt, r.firebase, r.alerts)
	if err != nil {
		return nil, err
	}

	r.apps[tenantId] = app
	return app, nil
}

// Clear drops one tenant's cached instance, or all of them when tenantId is
// empty. The next Get rebuilds from the current configuration.
func (r *Registry) Clear(tenantId string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if tenantId == "" {
		r.apps = make(map[string]*PaymentApplication)
		return
	}
	delete(r.apps, tenantId)
}
