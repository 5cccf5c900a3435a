// Code generated by MockGen. DO NOT EDIT.
// Source: dedup.go
//
// Generated by this command:
//
//	mockgen -source=dedup.go -destination=mocks/mocks.go -package=mocks
//

// Package mocks is a generated GoMock package.
package mocks

import (
	domain "content_collector/internal/domain"
	context "context"
	reflect "reflect"

	gomock "go.uber.org/mock/gomock"
)

// MockItemStore is a mock of ItemStore interface.
type MockItemStore struct {
	ctrl     *gomock.Controller
	recorder *MockItemStoreMockRecorder
	isgomock struct{}
}

// MockItemStoreMockRecorder is the mock recorder for MockItemStore.
type MockItemStoreMockRecorder struct {
	mock *MockItemStore
}

// NewMockItemStore creates a new mock instance.
func NewMockItemStore(ctrl *gomock.Controller) *MockItemStore {
	mock := &MockItemStore{ctrl: ctrl}
	mock.recorder = &MockItemStoreMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockItemStore) EXPECT() *MockItemStoreMockRecorder {
	return m.recorder
}

// FirstByContentHash mocks base method.
func (m *MockItemStore) FirstByContentHash(ctx context.Context, hash string, excludeID int64) (*domain.Item, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "FirstByContentHash", ctx, hash, excludeID)
	ret0, _ := ret[0].(*domain.Item)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// FirstByContentHash indicates an expected call of FirstByContentHash.
func (mr *MockItemStoreMockRecorder) FirstByContentHash(ctx, hash, excludeID any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "FirstByContentHash", reflect.TypeOf((*MockItemStore)(nil).FirstByContentHash), ctx, hash, excludeID)
}

// FirstByURLHash mocks base method.
func (m *MockItemStore) FirstByURLHash(ctx context.Context, hash string, excludeID int64) (*domain.Item, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "FirstByURLHash", ctx, hash, excludeID)
	ret0, _ := ret[0].(*domain.Item)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// FirstByURLHash indicates an expected call of FirstByURLHash.
func (mr *MockItemStoreMockRecorder) FirstByURLHash(ctx, hash, excludeID any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "FirstByURLHash", reflect.TypeOf((*MockItemStore)(nil).FirstByURLHash), ctx, hash, excludeID)
}

// RecentBySource mocks base method.
func (m *MockItemStore) RecentBySource(ctx context.Context, sourceID int64, limit int) ([]domain.Item, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "RecentBySource", ctx, sourceID, limit)
	ret0, _ := ret[0].([]domain.Item)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// RecentBySource indicates an expected call of RecentBySource.
func (mr *MockItemStoreMockRecorder) RecentBySource(ctx, sourceID, limit any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "RecentBySource", reflect.TypeOf((*MockItemStore)(nil).RecentBySource), ctx, sourceID, limit)
}

// MockDuplicateStore is a mock of DuplicateStore interface.
type MockDuplicateStore struct {
	ctrl     *gomock.Controller
	recorder *MockDuplicateStoreMockRecorder
	isgomock struct{}
}

// MockDuplicateStoreMockRecorder is the mock recorder for MockDuplicateStore.
type MockDuplicateStoreMockRecorder struct {
	mock *MockDuplicateStore
}

// NewMockDuplicateStore creates a new mock instance.
func NewMockDuplicateStore(ctrl *gomock.Controller) *MockDuplicateStore {
	mock := &MockDuplicateStore{ctrl: ctrl}
	mock.recorder = &MockDuplicateStoreMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockDuplicateStore) EXPECT() *MockDuplicateStoreMockRecorder {
	return m.recorder
}

// Insert mocks base method.
func (m *MockDuplicateStore) Insert(ctx context.Context, link *domain.DuplicateLink) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Insert", ctx, link)
	ret0, _ := ret[0].(error)
	return ret0
}

// Insert indicates an expected call of Insert.
func (mr *MockDuplicateStoreMockRecorder) Insert(ctx, link any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Insert", reflect.TypeOf((*MockDuplicateStore)(nil).Insert), ctx, link)
}
