package ordering

import (
	"context"
	"sync"
)

// branch lineage of a forked document. absent parent means root document.
type BranchInfo struct {
	TenantId   string `json:"tenantId"`
	DocumentId string `json:"documentId"`
}

// document record owned by the metadata tier, read-only here
type Document struct {
	TenantId   string      `json:"tenantId"`
	DocumentId string      `json:"documentId"`
	Parent     *BranchInfo `json:"parent,omitempty"`
}

type DocumentDetails struct {
	Value *Document
	// did this document already have committed history when resolved
	Existing bool
}

// resolves or creates document records. owned by the storage/metadata tier;
// errors from it propagate to factory callers unchanged.
type DocumentStorage interface {
	GetOrCreateDocument(ctx context.Context, tenantId string, documentId string) (*DocumentDetails, error)
}

// in-memory document storage for tests and local smoke runs
type MemoryDocumentStorage struct {
	stateLock sync.Mutex
	documents map[DocumentKey]*Document
}

func NewMemoryDocumentStorage() *MemoryDocumentStorage {
	return &MemoryDocumentStorage{
		documents: map[DocumentKey]*Document{},
	}
}

func (self *MemoryDocumentStorage) GetOrCreateDocument(ctx context.Context, tenantId string, documentId string) (*DocumentDetails, error) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	key := DocumentKey{TenantId: tenantId, DocumentId: documentId}
	if document, ok := self.documents[key]; ok {
		return &DocumentDetails{
			Value:    document,
			Existing: true,
		}, nil
	}
	document := &Document{
		TenantId:   tenantId,
		DocumentId: documentId,
	}
	self.documents[key] = document
	return &DocumentDetails{
		Value:    document,
		Existing: false,
	}, nil
}

// SetParent records branch lineage for a document, creating the record if
// needed. Used to seed forked documents.
func (self *MemoryDocumentStorage) SetParent(tenantId string, documentId string, parent *BranchInfo) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	key := DocumentKey{TenantId: tenantId, DocumentId: documentId}
	document, ok := self.documents[key]
	if !ok {
		document = &Document{
			TenantId:   tenantId,
			DocumentId: documentId,
		}
		self.documents[key] = document
	}
	document.Parent = parent
}
