// Package mocks provides testify mocks for the domain ports.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/fairyhunter13/ai-profile-upgrader/internal/domain"
)

// MockChatModel is a mock domain.ChatModel.
type MockChatModel struct{ mock.Mock }

// Complete implements domain.ChatModel.
func (m *MockChatModel) Complete(ctx context.Context, req domain.ChatRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

// Ping implements domain.ChatModel.
func (m *MockChatModel) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// MockVectorStore is a mock domain.VectorStore.
type MockVectorStore struct{ mock.Mock }

// Index implements domain.VectorStore.
func (m *MockVectorStore) Index(ctx context.Context, docs []domain.IndexedDocument) error {
	return m.Called(ctx, docs).Error(0)
}

// SearchWithScores implements domain.VectorStore.
func (m *MockVectorStore) SearchWithScores(ctx context.Context, query string, k int) ([]domain.ScoredDocument, error) {
	args := m.Called(ctx, query, k)
	docs, _ := args.Get(0).([]domain.ScoredDocument)
	return docs, args.Error(1)
}

// Reset implements domain.VectorStore.
func (m *MockVectorStore) Reset(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// Ping implements domain.VectorStore.
func (m *MockVectorStore) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// MockKeywordSource is a mock domain.KeywordSource.
type MockKeywordSource struct{ mock.Mock }

// FetchKeywords implements domain.KeywordSource.
func (m *MockKeywordSource) FetchKeywords(ctx context.Context, profession string, max int) ([]string, error) {
	args := m.Called(ctx, profession, max)
	kws, _ := args.Get(0).([]string)
	return kws, args.Error(1)
}

// MockArtifactStore is a mock domain.ArtifactStore.
type MockArtifactStore struct{ mock.Mock }

// Put implements domain.ArtifactStore.
func (m *MockArtifactStore) Put(ctx context.Context, key, contentType string, body []byte) error {
	return m.Called(ctx, key, contentType, body).Error(0)
}
