package provider

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/stretchr/testify/mock"
)

// MockContractCaller is a mock type for the ContractCaller type.
type MockContractCaller struct {
	mock.Mock
}

type MockContractCaller_Expecter struct {
	mock *mock.Mock
}

func (_m *MockContractCaller) EXPECT() *MockContractCaller_Expecter {
	return &MockContractCaller_Expecter{mock: &_m.Mock}
}

// CallContract provides a mock function with given fields: ctx, call, blockNumber
func (_m *MockContractCaller) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	ret := _m.Called(ctx, call, blockNumber)

	var r0 []byte
	if rf, ok := ret.Get(0).(func(context.Context, ethereum.CallMsg, *big.Int) []byte); ok {
		r0 = rf(ctx, call, blockNumber)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).([]byte)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, ethereum.CallMsg, *big.Int) error); ok {
		r1 = rf(ctx, call, blockNumber)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// MockContractCaller_CallContract_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'CallContract'
type MockContractCaller_CallContract_Call struct {
	*mock.Call
}

// CallContract is a helper method to define mock.On call
func (_e *MockContractCaller_Expecter) CallContract(ctx any, call any, blockNumber any) *MockContractCaller_CallContract_Call {
	return &MockContractCaller_CallContract_Call{Call: _e.mock.On("CallContract", ctx, call, blockNumber)}
}

func (_c *MockContractCaller_CallContract_Call) Return(_a0 []byte, _a1 error) *MockContractCaller_CallContract_Call {
	_c.Call.Return(_a0, _a1)
	return _c
}

// NewMockContractCaller creates a new instance of MockContractCaller. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockContractCaller(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockContractCaller {
	m := &MockContractCaller{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
