// Package mock holds a hand-maintained stand-in for mockgen-generated code.
// It implements directory.Gateway the way `mockgen -source=gateway.go` would,
// without requiring the code-generator to run.
package mock

import (
	"context"
	"reflect"

	"github.com/golang/mock/gomock"
	"github.com/usergroupcache/dircache/pkg/directory"
)

// MockGateway is a mock of the directory.Gateway interface.
type MockGateway struct {
	ctrl     *gomock.Controller
	recorder *MockGatewayMockRecorder
}

// MockGatewayMockRecorder is the mock recorder for MockGateway.
type MockGatewayMockRecorder struct {
	mock *MockGateway
}

// NewMockGateway creates a new mock instance.
func NewMockGateway(ctrl *gomock.Controller) *MockGateway {
	mock := &MockGateway{ctrl: ctrl}
	mock.recorder = &MockGatewayMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockGateway) EXPECT() *MockGatewayMockRecorder {
	return m.recorder
}

func (m *MockGateway) GetUserByName(ctx context.Context, name string) (*directory.User, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetUserByName", ctx, name)
	ret0, _ := ret[0].(*directory.User)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockGatewayMockRecorder) GetUserByName(ctx, name any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetUserByName",
		reflect.TypeOf((*MockGateway)(nil).GetUserByName), ctx, name)
}

func (m *MockGateway) GetUserByID(ctx context.Context, id int) (*directory.User, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetUserByID", ctx, id)
	ret0, _ := ret[0].(*directory.User)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockGatewayMockRecorder) GetUserByID(ctx, id any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetUserByID",
		reflect.TypeOf((*MockGateway)(nil).GetUserByID), ctx, id)
}

func (m *MockGateway) AddUser(ctx context.Context, name string) (*directory.User, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "AddUser", ctx, name)
	ret0, _ := ret[0].(*directory.User)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockGatewayMockRecorder) AddUser(ctx, name any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "AddUser",
		reflect.TypeOf((*MockGateway)(nil).AddUser), ctx, name)
}

func (m *MockGateway) RemoveUser(ctx context.Context, id int) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "RemoveUser", ctx, id)
	ret0, _ := ret[0].(error)
	return ret0
}

func (mr *MockGatewayMockRecorder) RemoveUser(ctx, id any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "RemoveUser",
		reflect.TypeOf((*MockGateway)(nil).RemoveUser), ctx, id)
}

func (m *MockGateway) GetGroupByName(ctx context.Context, name string) (*directory.Group, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetGroupByName", ctx, name)
	ret0, _ := ret[0].(*directory.Group)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockGatewayMockRecorder) GetGroupByName(ctx, name any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetGroupByName",
		reflect.TypeOf((*MockGateway)(nil).GetGroupByName), ctx, name)
}

func (m *MockGateway) GetGroupByID(ctx context.Context, id int) (*directory.Group, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetGroupByID", ctx, id)
	ret0, _ := ret[0].(*directory.Group)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockGatewayMockRecorder) GetGroupByID(ctx, id any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetGroupByID",
		reflect.TypeOf((*MockGateway)(nil).GetGroupByID), ctx, id)
}

func (m *MockGateway) AddGroup(ctx context.Context, name string) (*directory.Group, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "AddGroup", ctx, name)
	ret0, _ := ret[0].(*directory.Group)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockGatewayMockRecorder) AddGroup(ctx, name any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "AddGroup",
		reflect.TypeOf((*MockGateway)(nil).AddGroup), ctx, name)
}

func (m *MockGateway) RemoveGroup(ctx context.Context, id int) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "RemoveGroup", ctx, id)
	ret0, _ := ret[0].(error)
	return ret0
}

func (mr *MockGatewayMockRecorder) RemoveGroup(ctx, id any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "RemoveGroup",
		reflect.TypeOf((*MockGateway)(nil).RemoveGroup), ctx, id)
}

func (m *MockGateway) AddUserToGroups(ctx context.Context, userID int, groupIDs []int) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "AddUserToGroups", ctx, userID, groupIDs)
	ret0, _ := ret[0].(error)
	return ret0
}

func (mr *MockGatewayMockRecorder) AddUserToGroups(ctx, userID, groupIDs any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "AddUserToGroups",
		reflect.TypeOf((*MockGateway)(nil).AddUserToGroups), ctx, userID, groupIDs)
}

func (m *MockGateway) RemoveUserFromGroup(ctx context.Context, userID, groupID int) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "RemoveUserFromGroup", ctx, userID, groupID)
	ret0, _ := ret[0].(error)
	return ret0
}

func (mr *MockGatewayMockRecorder) RemoveUserFromGroup(ctx, userID, groupID any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "RemoveUserFromGroup",
		reflect.TypeOf((*MockGateway)(nil).RemoveUserFromGroup), ctx, userID, groupID)
}

func (m *MockGateway) GetGroupsForUser(ctx context.Context, userID int) ([]directory.Group, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetGroupsForUser", ctx, userID)
	ret0, _ := ret[0].([]directory.Group)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockGatewayMockRecorder) GetGroupsForUser(ctx, userID any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetGroupsForUser",
		reflect.TypeOf((*MockGateway)(nil).GetGroupsForUser), ctx, userID)
}

var _ directory.Gateway = (*MockGateway)(nil)
