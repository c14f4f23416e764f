package ordering

import (
	"context"

	"github.com/golang/glog"
	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/sync/singleflight"
)

// OrdererFactory is the process-wide registry mapping (tenant, document) to a
// single orderer. Concurrent Create calls for the same key collapse into one
// construction, so storage.GetOrCreateDocument runs at most once per document
// at a time. Only a successful construction enters the cache; a failed
// storage resolution is retryable on the next call rather than poisoning the
// key. Idle orderers are evicted by ttl or capacity and recreated on demand.
type OrdererFactory struct {
	ctx context.Context

	producer  Producer
	storage   DocumentStorage
	publisher ContentPublisher

	maxMessageSize int
	settings       *OrdererFactorySettings

	createGroup singleflight.Group
	orderers    *ttlcache.Cache[string, *Orderer]
}

func NewOrdererFactoryWithDefaults(
	ctx context.Context,
	producer Producer,
	storage DocumentStorage,
	maxMessageSize int,
	publisher ContentPublisher,
) *OrdererFactory {
	return NewOrdererFactory(ctx, producer, storage, maxMessageSize, publisher, DefaultOrdererFactorySettings())
}

func NewOrdererFactory(
	ctx context.Context,
	producer Producer,
	storage DocumentStorage,
	maxMessageSize int,
	publisher ContentPublisher,
	settings *OrdererFactorySettings,
) *OrdererFactory {
	orderers := ttlcache.New[string, *Orderer](
		ttlcache.WithTTL[string, *Orderer](settings.OrdererTtl),
		ttlcache.WithCapacity[string, *Orderer](settings.OrdererCacheCapacity),
	)

	orderers.OnEviction(func(ctx context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[string, *Orderer]) {
		glog.V(2).Infof("[factory]evict %s reason=%d\n", item.Key(), reason)
		item.Value().Close()
	})

	go orderers.Start()
	go func() {
		<-ctx.Done()
		orderers.Stop()
	}()

	return &OrdererFactory{
		ctx:            ctx,
		producer:       producer,
		storage:        storage,
		publisher:      publisher,
		maxMessageSize: maxMessageSize,
		settings:       settings,
		orderers:       orderers,
	}
}

// Create returns the orderer for (tenantId, documentId), constructing it if
// no live one is cached. All concurrent callers for one key receive the same
// orderer.
func (self *OrdererFactory) Create(ctx context.Context, tenantId string, documentId string) (*Orderer, error) {
	key := DocumentKey{TenantId: tenantId, DocumentId: documentId}.String()

	if item := self.orderers.Get(key); item != nil {
		return item.Value(), nil
	}

	orderer, err, _ := self.createGroup.Do(key, func() (any, error) {
		// a racing caller may have populated the cache before this
		// flight started
		if item := self.orderers.Get(key); item != nil {
			return item.Value(), nil
		}
		orderer, err := CreateOrderer(
			ctx,
			self.storage,
			self.producer,
			tenantId,
			documentId,
			self.maxMessageSize,
			self.publisher,
			self.settings,
		)
		if err != nil {
			return nil, err
		}
		self.orderers.Set(key, orderer, ttlcache.DefaultTTL)
		return orderer, nil
	})
	if err != nil {
		return nil, err
	}
	return orderer.(*Orderer), nil
}

// Size is the number of cached orderers.
func (self *OrdererFactory) Size() int {
	return self.orderers.Len()
}

// Keys snapshots the cached tenant/document keys.
func (self *OrdererFactory) Keys() []string {
	return self.orderers.Keys()
}
