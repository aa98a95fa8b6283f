package twilio

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/watson-stark/internal/channel"
)

type recordedMessage struct {
	To, From, Body, User string
}

// fakeTwilio answers the Messages endpoint with a scripted status sequence.
type fakeTwilio struct {
	mu       sync.Mutex
	statuses []int
	messages []recordedMessage
}

func (f *fakeTwilio) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_ = r.ParseForm()
	user, _, _ := r.BasicAuth()

	status := http.StatusCreated
	if len(f.statuses) > 0 {
		status = f.statuses[0]
		f.statuses = f.statuses[1:]
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if status >= 400 {
		_, _ = io.WriteString(w, `{"code":21211,"message":"The 'To' number is not valid."}`)
		return
	}
	f.messages = append(f.messages, recordedMessage{
		To: r.FormValue("To"), From: r.FormValue("From"), Body: r.FormValue("Body"), User: user,
	})
	_, _ = io.WriteString(w, `{"sid":"SM1","status":"queued"}`)
}

type stubHandler struct {
	reply string
	got   []channel.Inbound
}

func (h *stubHandler) HandleMessage(_ context.Context, in channel.Inbound) string {
	h.got = append(h.got, in)
	return h.reply
}

func newAdapter(t *testing.T, fake *fakeTwilio, handler channel.Handler) *Adapter {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return New(Config{
		AccountSID: "AC123",
		AuthToken:  "secret",
		From:       "whatsapp:+15550001111",
		APIBase:    srv.URL,
	}, handler, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func postWebhook(e *echo.Echo, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, WebhookPath, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestWebhookReplies(t *testing.T) {
	fake := &fakeTwilio{}
	handler := &stubHandler{reply: "Todo created"}
	a := newAdapter(t, fake, handler)
	e := echo.New()
	a.Mount(e)

	rec := postWebhook(e, url.Values{
		"Body":        {"add buy milk"},
		"From":        {"whatsapp:+15557654321"},
		"ProfileName": {"Pepper"},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<Response/>", rec.Body.String())

	require.Len(t, handler.got, 1)
	assert.Equal(t, channel.Inbound{
		Channel: "twilio", ChatID: "whatsapp:+15557654321", UserID: "whatsapp:+15557654321",
		UserName: "Pepper", Text: "add buy milk",
	}, handler.got[0])

	require.Len(t, fake.messages, 1)
	assert.Equal(t, recordedMessage{
		To: "whatsapp:+15557654321", From: "whatsapp:+15550001111", Body: "Todo created", User: "AC123",
	}, fake.messages[0])
}

func TestWebhookSendFailureIs500(t *testing.T) {
	fake := &fakeTwilio{statuses: []int{http.StatusBadRequest}}
	a := newAdapter(t, fake, &stubHandler{reply: "hi"})
	e := echo.New()
	a.Mount(e)

	rec := postWebhook(e, url.Values{"Body": {"hello"}, "From": {"whatsapp:+1"}})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "<Response/>", rec.Body.String())
}

func TestWebhookRequiresSender(t *testing.T) {
	handler := &stubHandler{reply: "hi"}
	a := newAdapter(t, &fakeTwilio{}, handler)
	e := echo.New()
	a.Mount(e)

	rec := postWebhook(e, url.Values{"Body": {"hello"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, handler.got)
}

func TestSendRetriesTransientErrors(t *testing.T) {
	fake := &fakeTwilio{statuses: []int{http.StatusServiceUnavailable, http.StatusTooManyRequests}}
	a := newAdapter(t, fake, &stubHandler{})

	require.NoError(t, a.Send(context.Background(), "whatsapp:+1", "⏰ Reminder: call mom"))
	require.Len(t, fake.messages, 1)
	assert.Equal(t, "⏰ Reminder: call mom", fake.messages[0].Body)
}

func TestSendDoesNotRetryClientErrors(t *testing.T) {
	fake := &fakeTwilio{statuses: []int{http.StatusBadRequest, http.StatusBadRequest}}
	a := newAdapter(t, fake, &stubHandler{})

	err := a.Send(context.Background(), "bogus", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not valid")
	assert.Len(t, fake.statuses, 1, "only one attempt was made")
}

func TestSendSplitsLongBodies(t *testing.T) {
	fake := &fakeTwilio{}
	a := newAdapter(t, fake, &stubHandler{})

	require.NoError(t, a.Send(context.Background(), "whatsapp:+1", strings.Repeat("y", maxBodyLength+1)))
	require.Len(t, fake.messages, 2)
	assert.Len(t, fake.messages[1].Body, 1)
}
