package ordering

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/golang/glog"
)

// Orderer owns the per-document state needed to construct connections and is
// the factory for them. One orderer exists per (tenant, document) per
// process; see OrdererFactory.
type Orderer struct {
	details   *DocumentDetails
	producer  Producer
	publisher ContentPublisher

	tenantId       string
	documentId     string
	maxMessageSize int
	settings       *OrdererFactorySettings

	stateLock sync.Mutex
	existing  bool
}

// CreateOrderer resolves or creates the document record via storage and
// records the resulting existing flag. Storage errors propagate unchanged.
func CreateOrderer(
	ctx context.Context,
	storage DocumentStorage,
	producer Producer,
	tenantId string,
	documentId string,
	maxMessageSize int,
	publisher ContentPublisher,
	settings *OrdererFactorySettings,
) (*Orderer, error) {
	details, err := storage.GetOrCreateDocument(ctx, tenantId, documentId)
	if err != nil {
		return nil, err
	}
	glog.V(2).Infof("[orderer]create %s/%s existing=%t\n", tenantId, documentId, details.Existing)
	return &Orderer{
		details:        details,
		producer:       producer,
		publisher:      publisher,
		tenantId:       tenantId,
		documentId:     documentId,
		maxMessageSize: maxMessageSize,
		settings:       settings,
		existing:       details.Existing,
	}, nil
}

// Connect produces a new connection for one client session. The first
// successful call permanently marks the document as existing for this
// orderer's lifetime; the flag flips regardless of whether connection
// construction itself succeeds.
func (self *Orderer) Connect(
	ctx context.Context,
	socket Socket,
	user json.RawMessage,
	client json.RawMessage,
) (*Connection, error) {
	self.stateLock.Lock()
	existing := self.existing
	self.existing = true
	self.stateLock.Unlock()

	return CreateConnection(
		ctx,
		existing,
		self.details.Value,
		self.producer,
		self.tenantId,
		self.documentId,
		socket,
		user,
		client,
		self.maxMessageSize,
		self.publisher,
		self.settings,
	)
}

// Existing reports whether the document has committed history, as this
// orderer currently records it.
func (self *Orderer) Existing() bool {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	return self.existing
}

// Close is a symmetric lifecycle hook. The producer, publisher and storage
// handles are shared and owned externally, so there is nothing to release.
func (self *Orderer) Close() {
}
