package ordering

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"
)

// fakes shared across the package tests

type sentRecord struct {
	message      []byte
	partitionKey string
}

type captureProducer struct {
	stateLock sync.Mutex
	sent      []sentRecord
	sendErr   error
}

func (self *captureProducer) Send(ctx context.Context, message []byte, partitionKey string) error {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	if self.sendErr != nil {
		return self.sendErr
	}
	self.sent = append(self.sent, sentRecord{
		message:      append([]byte{}, message...),
		partitionKey: partitionKey,
	})
	return nil
}

func (self *captureProducer) Sent() []sentRecord {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	return append([]sentRecord{}, self.sent...)
}

func (self *captureProducer) Envelopes(t *testing.T) []*RawOperationMessage {
	envelopes := []*RawOperationMessage{}
	for _, record := range self.Sent() {
		envelope := &RawOperationMessage{}
		if err := json.Unmarshal(record.message, envelope); err != nil {
			t.Fatalf("bad envelope json: %s", err)
		}
		envelopes = append(envelopes, envelope)
	}
	return envelopes
}

type capturePublisher struct {
	stateLock  sync.Mutex
	published  []*ContentMessage
	publishErr error
}

func (self *capturePublisher) Publish(ctx context.Context, message *ContentMessage) error {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	if self.publishErr != nil {
		return self.publishErr
	}
	self.published = append(self.published, message)
	return nil
}

func (self *capturePublisher) Published() []*ContentMessage {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	return append([]*ContentMessage{}, self.published...)
}

type captureSocket struct {
	stateLock sync.Mutex
	rooms     []string
	// when set, joining a room with this name fails
	failRoom string
}

func (self *captureSocket) Join(ctx context.Context, room string) error {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	if self.failRoom != "" && self.failRoom == room {
		return fmt.Errorf("join refused: %s", room)
	}
	self.rooms = append(self.rooms, room)
	return nil
}

func (self *captureSocket) Rooms() []string {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	return append([]string{}, self.rooms...)
}

type countingStorage struct {
	inner DocumentStorage
	delay time.Duration

	stateLock sync.Mutex
	count     int
	// errs[i] is returned for call i, nil entries delegate to inner
	errs []error
}

func (self *countingStorage) GetOrCreateDocument(ctx context.Context, tenantId string, documentId string) (*DocumentDetails, error) {
	self.stateLock.Lock()
	call := self.count
	self.count += 1
	self.stateLock.Unlock()

	if 0 < self.delay {
		select {
		case <-time.After(self.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if call < len(self.errs) && self.errs[call] != nil {
		return nil, self.errs[call]
	}
	return self.inner.GetOrCreateDocument(ctx, tenantId, documentId)
}

func (self *countingStorage) Count() int {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	return self.count
}

func testSettings() *OrdererFactorySettings {
	next := 0
	settings := DefaultOrdererFactorySettings()
	settings.GenerateClientId = func() string {
		next += 1
		return fmt.Sprintf("c%d", next)
	}
	return settings
}

func testUser() json.RawMessage {
	return json.RawMessage(`{"id":"u1"}`)
}

func testClientDetail() json.RawMessage {
	return json.RawMessage(`{"mode":"write"}`)
}
