package server

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net"

	"github.com/dtroode/alumni-server/internal/model"
)

var (
	_ model.SecurityLayer = (*TLSListener)(nil)
	_ model.SecurityLayer = (*PlainListener)(nil)
)

// TLSListener terminates TLS with a certificate pair loaded from disk.
type TLSListener struct {
	certFile string
	keyFile  string
}

func NewTLSListener(certFile, keyFile string) *TLSListener {
	return &TLSListener{
		certFile: certFile,
		keyFile:  keyFile,
	}
}

// Listen loads the key pair on every call, so a renewed certificate is picked
// up on restart.
func (l *TLSListener) Listen(protocol, addr string) (net.Listener, error) {
	cert, err := tls.LoadX509KeyPair(l.certFile, l.keyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load TLS certificate: %w", err)
	}
	return tls.Listen(protocol, addr, &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	})
}

// PlainListener accepts unencrypted connections. Use it behind a TLS
// terminating proxy.
type PlainListener struct{}

func NewPlainListener() *PlainListener {
	return &PlainListener{}
}

func (l *PlainListener) Listen(protocol, addr string) (net.Listener, error) {
	return net.Listen(protocol, addr)
}

// NewSecurityLayer returns a TLS listener when both files are set and a plain
// listener when neither is. Setting only one of them is an error.
func NewSecurityLayer(certFile, keyFile string) (model.SecurityLayer, error) {
	switch {
	case certFile != "" && keyFile != "":
		return NewTLSListener(certFile, keyFile), nil
	case certFile == "" && keyFile == "":
		return NewPlainListener(), nil
	default:
		return nil, errors.New("both TLS certificate and key files are required")
	}
}
