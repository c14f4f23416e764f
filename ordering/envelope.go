package ordering

import (
	"encoding/json"
	"time"
)

// envelope type for every message this tier pushes onto the ordered log
const RawOperationType = "RawOperation"

// control operation types. join and leave are emitted by the connection
// itself and carry sentinel sequence numbers until the downstream sequencer
// assigns the real order.
const (
	MessageTypeClientJoin  = "join"
	MessageTypeClientLeave = "leave"
)

// sequence number value meaning "not yet assigned"
const UnassignedSequenceNumber = int64(-1)

// latency diagnostics hop record. services append one entry per hop, never
// remove or reorder.
type TraceRecord struct {
	Action    string  `json:"action"`
	Service   string  `json:"service"`
	Timestamp float64 `json:"timestamp"`
}

// an edit operation as issued by a client, or a membership control operation.
// `Contents` is opaque to this tier except for the split path, which nulls it
// on the log copy after the side channel has the full payload.
type DocumentMessage struct {
	Type                    string          `json:"type"`
	ClientSequenceNumber    int64           `json:"clientSequenceNumber"`
	ReferenceSequenceNumber int64           `json:"referenceSequenceNumber"`
	Contents                json.RawMessage `json:"contents"`
	Traces                  []TraceRecord   `json:"traces"`
}

// Clone returns an independent copy. The split path builds two envelope
// values from one logical operation so that nulling the log copy's contents
// cannot alias the side-channel copy.
func (self *DocumentMessage) Clone() *DocumentMessage {
	out := *self
	if self.Contents != nil {
		out.Contents = append(json.RawMessage{}, self.Contents...)
	}
	if self.Traces != nil {
		out.Traces = append([]TraceRecord{}, self.Traces...)
	}
	return &out
}

// the unit placed on the ordered log. `ClientId` is nil for control messages
// not attributable to a connected client.
type RawOperationMessage struct {
	Type       string           `json:"type"`
	TenantId   string           `json:"tenantId"`
	DocumentId string           `json:"documentId"`
	ClientId   *string          `json:"clientId"`
	User       json.RawMessage  `json:"user"`
	Timestamp  int64            `json:"timestamp"`
	Operation  *DocumentMessage `json:"operation"`
}

// join payload: the joining client's id plus its caller-supplied capability
// descriptor
type ClientJoinContents struct {
	ClientId string          `json:"clientId"`
	Detail   json.RawMessage `json:"detail"`
}

// full-payload copy delivered out-of-band when the log envelope is split
type ContentMessage struct {
	TenantId   string           `json:"tenantId"`
	DocumentId string           `json:"documentId"`
	ClientId   string           `json:"clientId"`
	Op         *DocumentMessage `json:"op"`
}

func startTrace(serviceName string) TraceRecord {
	return TraceRecord{
		Action:    "start",
		Service:   serviceName,
		Timestamp: float64(time.Now().UnixNano()) / float64(time.Millisecond),
	}
}
