package mail

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/alumni-server/internal/testutil"
)

type recordingSender struct {
	sent []Message
	err  error
}

func (r *recordingSender) Send(_ context.Context, msg Message) error {
	if r.err != nil {
		return r.err
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	r.sent = append(r.sent, msg)
	return nil
}

func TestNotifier_SendVerification(t *testing.T) {
	s := &recordingSender{}
	n := NewNotifier(s, "https://alumni.example.com/")

	require.NoError(t, n.SendVerification(context.Background(), "ana@example.com", "Ana", "abc123"))
	require.Len(t, s.sent, 1)

	msg := s.sent[0]
	assert.Equal(t, "ana@example.com", msg.To)
	assert.Equal(t, "verification", msg.Tag)
	assert.Contains(t, msg.HTMLBody, "https://alumni.example.com/register/verify-email?token=abc123")
	assert.Contains(t, msg.HTMLBody, "24 hours")
	assert.Contains(t, msg.HTMLBody, "Ana")
}

func TestNotifier_SendPasswordReset(t *testing.T) {
	s := &recordingSender{}
	n := NewNotifier(s, "https://alumni.example.com")

	require.NoError(t, n.SendPasswordReset(context.Background(), "ana@example.com", "Ana", "tok"))
	require.Len(t, s.sent, 1)
	assert.Contains(t, s.sent[0].HTMLBody, "https://alumni.example.com/reset-password?token=tok")
	assert.Contains(t, s.sent[0].HTMLBody, "1 hour")
}

func TestNotifier_SendWelcome(t *testing.T) {
	s := &recordingSender{}
	n := NewNotifier(s, "https://alumni.example.com")

	require.NoError(t, n.SendWelcome(context.Background(), "ana@example.com", "<b>Ana</b>"))
	require.Len(t, s.sent, 1)
	assert.NotContains(t, s.sent[0].HTMLBody, "<b>Ana</b>", "names are escaped")
}

func TestNotifier_PropagatesSenderError(t *testing.T) {
	boom := errors.New("provider down")
	n := NewNotifier(&recordingSender{err: boom}, "https://alumni.example.com")

	err := n.SendWelcome(context.Background(), "ana@example.com", "Ana")
	assert.ErrorIs(t, err, boom)
}

func TestMessage_Validate(t *testing.T) {
	assert.NoError(t, Message{To: "a@b.c", Subject: "s", HTMLBody: "b"}.Validate())
	assert.ErrorIs(t, Message{To: "nope", Subject: "s", HTMLBody: "b"}.Validate(), ErrInvalidParams)
	assert.ErrorIs(t, Message{To: "a@b.c", HTMLBody: "b"}.Validate(), ErrInvalidParams)
	assert.ErrorIs(t, Message{To: "a@b.c", Subject: "s"}.Validate(), ErrInvalidParams)
}

func TestLogSender_Send(t *testing.T) {
	log, buf := testutil.MakeBufferLogger()
	s := NewLogSender(log)

	msg := Message{To: "a@b.c", Subject: "Verify", HTMLBody: `<a href="https://x/verify?token=secret-token">verify</a>`, Tag: "verification"}
	assert.NoError(t, s.Send(context.Background(), msg))
	assert.Error(t, s.Send(context.Background(), Message{}))

	out := buf.String()
	assert.Contains(t, out, "to=a@b.c")
	assert.Contains(t, out, "tag=verification")
	assert.NotContains(t, out, "secret-token")
}

func TestNewPostmarkSender_InvalidConfig(t *testing.T) {
	_, err := NewPostmarkSender(PostmarkConfig{From: "noreply@example.com"})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewPostmarkSender(PostmarkConfig{ServerToken: "t", From: "not-an-address"})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestPostmarkSender_Send(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "server-token", r.Header.Get("X-Postmark-Server-Token"))
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ErrorCode":0,"Message":"OK","MessageID":"id-1"}`))
	}))
	defer srv.Close()

	s, err := NewPostmarkSender(PostmarkConfig{
		ServerToken: "server-token",
		From:        "noreply@example.com",
		FromName:    "Alumni Club",
		Support:     "support@example.com",
	})
	require.NoError(t, err)
	s.client.BaseURL = srv.URL

	require.NoError(t, s.Send(context.Background(), Message{To: "ana@example.com", Subject: "Hi", HTMLBody: "<p>x</p>", Tag: "welcome"}))
	assert.Equal(t, "ana@example.com", got["To"])
	assert.Equal(t, "support@example.com", got["ReplyTo"])
	assert.Equal(t, "welcome", got["Tag"])
}

func TestPostmarkSender_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ErrorCode":406,"Message":"Inactive recipient"}`))
	}))
	defer srv.Close()

	s, err := NewPostmarkSender(PostmarkConfig{ServerToken: "t", From: "noreply@example.com"})
	require.NoError(t, err)
	s.client.BaseURL = srv.URL

	err = s.Send(context.Background(), Message{To: "ana@example.com", Subject: "Hi", HTMLBody: "<p>x</p>"})
	assert.ErrorIs(t, err, ErrFailedToSend)
}
