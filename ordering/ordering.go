package ordering

import (
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// default service name tagged on trace records emitted by this tier
const DefaultServiceName = "ingress"

// message types forwarded to the ordered log with their full contents intact.
// a downstream text-search consumer parses these envelopes verbatim, so the
// split path must not hollow them out.
const MessageTypeRemoteHelp = "remoteHelp"

// generates the id assigned to each connection. injectable so tests can
// supply deterministic ids.
type IdGenerator func() string

func NewClientId() string {
	return strings.ToLower(ulid.Make().String())
}

// comparable composite key for a document within a tenant
type DocumentKey struct {
	TenantId   string
	DocumentId string
}

func (self DocumentKey) String() string {
	return fmt.Sprintf("%s/%s", self.TenantId, self.DocumentId)
}

type OrdererFactorySettings struct {
	// how long an idle orderer stays cached before eviction
	OrdererTtl time.Duration
	// maximum number of cached orderers across all tenants
	OrdererCacheCapacity uint64
	// operation types exempt from payload splitting
	PassthroughTypes []string
	// when set, Order rejects serialized envelopes larger than the
	// connection's maxMessageSize instead of treating the ceiling as
	// informational metadata for the transport
	EnforceMaxMessageSize bool
	ServiceName           string
	GenerateClientId      IdGenerator
}

func DefaultOrdererFactorySettings() *OrdererFactorySettings {
	return &OrdererFactorySettings{
		OrdererTtl:            4 * time.Hour,
		OrdererCacheCapacity:  10_000,
		PassthroughTypes:      []string{MessageTypeRemoteHelp},
		EnforceMaxMessageSize: false,
		ServiceName:           DefaultServiceName,
		GenerateClientId:      NewClientId,
	}
}
