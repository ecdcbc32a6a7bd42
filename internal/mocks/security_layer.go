package mocks

import (
	"net"

	"github.com/stretchr/testify/mock"

	"github.com/dtroode/alumni-server/internal/model"
)

// SecurityLayer is a mock type for the model.SecurityLayer interface.
type SecurityLayer struct {
	mock.Mock
}

var _ model.SecurityLayer = (*SecurityLayer)(nil)

func (_m *SecurityLayer) Listen(protocol, addr string) (net.Listener, error) {
	ret := _m.Called(protocol, addr)
	var ln net.Listener
	if v := ret.Get(0); v != nil {
		ln = v.(net.Listener)
	}
	return ln, ret.Error(1)
}
