package oauth

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
)

func listen(t *testing.T, state string) *Receiver {
	t.Helper()
	r, err := Listen(0, 0)
	require.NoError(t, err)
	r.Expect(state)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func redirect(t *testing.T, r *Receiver, params url.Values) (int, string) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, r.RedirectURI()+"?"+params.Encode(), nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func shortCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestReceiver_DeliversCode(t *testing.T) {
	r := listen(t, "s1")
	assert.NotZero(t, r.Port())
	assert.Contains(t, r.RedirectURI(), CallbackPath)

	status, body := redirect(t, r, url.Values{"state": {"s1"}, "code": {"abc"}})
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Authorization successful")

	code, err := r.Wait(shortCtx(t))
	require.NoError(t, err)
	assert.Equal(t, "abc", code)
}

func TestReceiver_RejectsBadRedirects(t *testing.T) {
	tests := []struct {
		name    string
		params  url.Values
		wantErr error
		inBody  string
	}{
		{"state mismatch", url.Values{"state": {"other"}, "code": {"c"}}, ErrStateMismatch, "state parameter"},
		{"provider error", url.Values{"error": {"access_denied"}, "error_description": {"<b>no</b>"}}, domain.ErrAuthInvalid, "&lt;b&gt;no&lt;/b&gt;"},
		{"missing code", url.Values{"state": {"s1"}}, domain.ErrAuthInvalid, "No authorization code"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := listen(t, "s1")
			status, body := redirect(t, r, tt.params)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Contains(t, body, tt.inBody)

			_, err := r.Wait(shortCtx(t))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestReceiver_FirstRedirectWins(t *testing.T) {
	r := listen(t, "s1")
	redirect(t, r, url.Values{"state": {"s1"}, "code": {"first"}})
	redirect(t, r, url.Values{"state": {"s1"}, "code": {"second"}})

	code, err := r.Wait(shortCtx(t))
	require.NoError(t, err)
	assert.Equal(t, "first", code)
}

func TestReceiver_WaitCancelled(t *testing.T) {
	r := listen(t, "s1")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestListen_SkipsBusyPorts(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()
	port := busy.Addr().(*net.TCPAddr).Port

	_, err = Listen(port, port)
	assert.Error(t, err)

	r, err := Listen(port, port+50)
	require.NoError(t, err)
	defer r.Close()
	assert.NotEqual(t, port, r.Port())
}
