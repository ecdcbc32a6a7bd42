package main

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpserver "github.com/dtroode/alumni-server/internal/api/http/server"
	"github.com/dtroode/alumni-server/internal/encryption"
	"github.com/dtroode/alumni-server/internal/server"
	"github.com/dtroode/alumni-server/internal/testutil"
)

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()

	names := make([]string, 0)
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"server", "migrate", "keygen"})

	migrate, _, err := root.Find([]string{"migrate", "status"})
	require.NoError(t, err)
	assert.Equal(t, "status", migrate.Name())
}

func TestKeygenCmd(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"keygen"})

	require.NoError(t, root.Execute())

	key := strings.TrimSpace(out.String())
	assert.True(t, encryption.ValidateKey(key))
}

func TestServerCmd_RejectsInvalidConfig(t *testing.T) {
	t.Setenv("JWT_ACCESS_SECRET", "")
	t.Setenv("ENCRYPTION_KEY", "short")

	root := newRootCmd()
	root.SetArgs([]string{"server"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func runServe(t *testing.T, ctx context.Context, addr string) <-chan error {
	t.Helper()
	sl, err := server.NewSecurityLayer("", "")
	require.NoError(t, err)
	srv := httpserver.NewHTTPServer(http.NotFoundHandler(), addr)

	done := make(chan error, 1)
	go func() { done <- serve(ctx, srv, sl, testutil.MakeNoopLogger(), false) }()
	return done
}

func TestServe_ReturnsWhenPortIsTaken(t *testing.T) {
	taken, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer taken.Close()

	select {
	case err := <-runServe(t, context.Background(), taken.Addr().String()):
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to listen")
	case <-time.After(5 * time.Second):
		t.Fatal("serve kept running after the listener failed")
	}
}

func TestServe_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := runServe(t, ctx, "127.0.0.1:0")
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop after cancellation")
	}
}
