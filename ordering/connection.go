package ordering

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"golang.org/x/exp/maps"
	"golang.org/x/sync/errgroup"
)

// Connection is one client's live session against one document. It translates
// client-issued operations and lifecycle events into raw-operation envelopes
// on the ordered log. The first envelope a connection emits is its own join;
// the last, on Disconnect, is its own leave. No other component emits
// join/leave for a clientId it did not create.
type Connection struct {
	ctx context.Context

	producer  Producer
	publisher ContentPublisher

	tenantId   string
	documentId string
	clientId   string
	user       json.RawMessage
	client     json.RawMessage

	existing       bool
	parentBranch   string
	maxMessageSize int

	serviceName           string
	passthroughTypes      map[string]bool
	enforceMaxMessageSize bool

	// call order must equal emission order onto the log. held across
	// envelope construction and the transport send.
	submitLock sync.Mutex
}

// CreateConnection binds the socket to the document channel and the
// client-private channel (joined concurrently, both must complete), then
// emits the join envelope for the fresh clientId before returning.
func CreateConnection(
	ctx context.Context,
	existing bool,
	document *Document,
	producer Producer,
	tenantId string,
	documentId string,
	socket Socket,
	user json.RawMessage,
	client json.RawMessage,
	maxMessageSize int,
	publisher ContentPublisher,
	settings *OrdererFactorySettings,
) (*Connection, error) {
	clientId := settings.GenerateClientId()

	passthroughTypes := map[string]bool{}
	for _, messageType := range settings.PassthroughTypes {
		passthroughTypes[messageType] = true
	}

	parentBranch := ""
	if document != nil && document.Parent != nil {
		parentBranch = document.Parent.DocumentId
	}

	connection := &Connection{
		ctx:                   ctx,
		producer:              producer,
		publisher:             publisher,
		tenantId:              tenantId,
		documentId:            documentId,
		clientId:              clientId,
		user:                  user,
		client:                client,
		existing:              existing,
		parentBranch:          parentBranch,
		maxMessageSize:        maxMessageSize,
		serviceName:           settings.ServiceName,
		passthroughTypes:      passthroughTypes,
		enforceMaxMessageSize: settings.EnforceMaxMessageSize,
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return socket.Join(egCtx, fmt.Sprintf("%s/%s", tenantId, documentId))
	})
	eg.Go(func() error {
		return socket.Join(egCtx, fmt.Sprintf("client#%s", clientId))
	})
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrChannelBind, err)
	}

	if err := connection.submitJoin(); err != nil {
		return nil, err
	}

	return connection, nil
}

func (self *Connection) ClientId() string {
	return self.clientId
}

func (self *Connection) Existing() bool {
	return self.existing
}

// ParentBranch is the parent document's id, or empty for a root document.
func (self *Connection) ParentBranch() string {
	return self.parentBranch
}

// MaxMessageSize is the configured per-message ceiling the transport layer is
// expected to respect.
func (self *Connection) MaxMessageSize() int {
	return self.maxMessageSize
}

// PassthroughTypes lists the operation types exempt from payload splitting.
func (self *Connection) PassthroughTypes() []string {
	return maps.Keys(self.passthroughTypes)
}

// Order submits one client-authored operation, attributed to this
// connection's clientId and timestamped at call time. Large payloads are
// routed through the side channel per the split rule.
func (self *Connection) Order(operation *DocumentMessage) error {
	message := &RawOperationMessage{
		Type:       RawOperationType,
		TenantId:   self.tenantId,
		DocumentId: self.documentId,
		ClientId:   &self.clientId,
		User:       self.user,
		Timestamp:  time.Now().UnixMilli(),
		Operation:  operation.Clone(),
	}
	return self.submit(message, true)
}

// Disconnect emits the leave envelope for this connection's clientId.
// Idempotency is the caller's responsibility: a second call emits a second
// leave.
func (self *Connection) Disconnect() error {
	contents, err := json.Marshal(self.clientId)
	if err != nil {
		return err
	}
	message := &RawOperationMessage{
		Type:       RawOperationType,
		TenantId:   self.tenantId,
		DocumentId: self.documentId,
		ClientId:   nil,
		User:       self.user,
		Timestamp:  time.Now().UnixMilli(),
		Operation: &DocumentMessage{
			Type:                    MessageTypeClientLeave,
			ClientSequenceNumber:    UnassignedSequenceNumber,
			ReferenceSequenceNumber: UnassignedSequenceNumber,
			Contents:                contents,
			Traces:                  []TraceRecord{},
		},
	}
	return self.submit(message, false)
}

func (self *Connection) submitJoin() error {
	contents, err := json.Marshal(&ClientJoinContents{
		ClientId: self.clientId,
		Detail:   self.client,
	})
	if err != nil {
		return err
	}
	message := &RawOperationMessage{
		Type:       RawOperationType,
		TenantId:   self.tenantId,
		DocumentId: self.documentId,
		ClientId:   nil,
		User:       self.user,
		Timestamp:  time.Now().UnixMilli(),
		Operation: &DocumentMessage{
			Type:                    MessageTypeClientJoin,
			ClientSequenceNumber:    UnassignedSequenceNumber,
			ReferenceSequenceNumber: UnassignedSequenceNumber,
			Contents:                contents,
			Traces:                  []TraceRecord{},
		},
	}
	return self.submit(message, false)
}

// submit is the single emission path for join, order and leave.
//  1. client-attributable operations carrying a trace list get a start trace
//     for this tier
//  2. when splitting applies, the side channel gets the full operation and
//     the log envelope's contents are nulled so the ordered log stays lean
//  3. the envelope is serialized and pushed to the log keyed by documentId
func (self *Connection) submit(message *RawOperationMessage, split bool) error {
	self.submitLock.Lock()
	defer self.submitLock.Unlock()

	if message.ClientId != nil && message.Operation.Traces != nil {
		message.Operation.Traces = append(message.Operation.Traces, startTrace(self.serviceName))
	}

	if split && message.ClientId != nil && !self.passthroughTypes[message.Operation.Type] {
		content := &ContentMessage{
			TenantId:   self.tenantId,
			DocumentId: self.documentId,
			ClientId:   self.clientId,
			Op:         message.Operation.Clone(),
		}
		if err := self.publisher.Publish(self.ctx, content); err != nil {
			return fmt.Errorf("%w: %w", ErrTransportSend, err)
		}
		message.Operation.Contents = nil
	}

	serialized, err := json.Marshal(message)
	if err != nil {
		return err
	}
	if self.enforceMaxMessageSize && self.maxMessageSize < len(serialized) {
		return fmt.Errorf("%w: %d < %d", ErrMessageSize, self.maxMessageSize, len(serialized))
	}
	if err := self.producer.Send(self.ctx, serialized, self.documentId); err != nil {
		return fmt.Errorf("%w: %w", ErrTransportSend, err)
	}
	return nil
}
