package services

import (
	"sync"

	log "github.com/sirupsen/logrus"

	"shop-assistant/internal/app/conversation"
	"shop-assistant/internal/app/repositories"
	"shop-assistant/internal/pkg/storage"
	"shop-assistant/internal/pkg/stream"
	"shop-assistant/pkg/config"
)

var initOnce sync.Once

var (
	Sessions *SessionService
	Turns    *TurnService
	// Warehouse and Audit are nil when no database is configured.
	Warehouse *WarehouseService
	Audit     *AuditHistory
)

// Init wires the services against the backends opened by storage.Init.
func Init() error {
	var err error
	initOnce.Do(func() {
		err = initServices()
	})
	return err
}

func initServices() error {
	cortexConf := config.GetCortexConf()
	dialect, err := stream.ParseDialect(cortexConf.Dialect)
	if err != nil {
		return err
	}
	cortex := NewCortexClient(cortexConf)

	ttl := config.GetSessionConf().TTL
	var (
		store  conversation.Store
		locker conversation.Locker
	)
	if storage.Redis != nil {
		store = conversation.NewRedisStore(storage.Redis, ttl)
		locker = conversation.NewRedsyncLocker(storage.Redis, config.GetRedisConf().LockExpiry)
	} else {
		store = conversation.NewMemoryStore(ttl)
		locker = conversation.NewMemoryLocker()
	}

	var audit AuditSink = LogAuditSink{}
	if storage.DB != nil {
		auditRepo := repositories.NewAuditRepository(storage.DB)
		audit = NewDBAuditSink(auditRepo)
		Audit = NewAuditHistory(auditRepo)
		Warehouse = NewWarehouseService(repositories.NewWarehouseRepository(storage.DB), storage.Redis)
	}

	Sessions = NewSessionService(store, locker, NewFeedbackService(cortex, audit))
	Turns = NewTurnService(store, locker, cortex, newClassifier(), audit, dialect)
	log.Infof("services ready (dialect=%s)", dialect)
	return nil
}

func newClassifier() Classifier {
	visionConf := config.GetVisionConf()
	var classifier Classifier
	switch visionConf.Provider {
	case config.VisionProviderOpenAI:
		classifier = NewOpenAIClassifier(config.GetOpenaiConf())
	case config.VisionProviderLandingAI:
		credential := StaticCredential(visionConf.APIKey)
		if Warehouse != nil {
			credential = Warehouse.CredentialSource(visionConf.APIKey, visionConf.CredentialName)
		}
		classifier = NewLandingAIClassifier(visionConf, credential)
	default:
		log.Warnf("unknown vision provider %q, image recognition disabled", visionConf.Provider)
		return nil
	}
	if storage.Redis != nil && visionConf.CacheTTL > 0 {
		classifier = NewCachedClassifier(classifier, storage.Redis, visionConf.CacheTTL)
	}
	return classifier
}
