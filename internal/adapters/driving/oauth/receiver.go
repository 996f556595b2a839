// Package oauth receives the authorization-code redirect on a loopback port
// for `intake auth connect` and opens the user's browser.
package oauth

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
)

// CallbackPath is the redirect path registered with providers.
const CallbackPath = "/callback"

// ErrStateMismatch means the redirect did not answer our request.
var ErrStateMismatch = errors.New("oauth: state mismatch")

//go:embed page.html
var pageHTML string

var page = template.Must(template.New("callback").Parse(pageHTML))

type outcome struct {
	code string
	err  error
}

// Receiver serves CallbackPath on 127.0.0.1 until the first redirect
// arrives. Only the first redirect counts.
type Receiver struct {
	server *http.Server
	port   int
	done   chan outcome
	once   sync.Once

	mu    sync.Mutex
	state string
}

// Listen binds the first free port in [from, to]. A zero range lets the
// kernel pick.
func Listen(from, to int) (*Receiver, error) {
	ln, err := bind(from, to)
	if err != nil {
		return nil, err
	}
	r := &Receiver{
		port: ln.Addr().(*net.TCPAddr).Port,
		done: make(chan outcome, 1),
	}

	router := chi.NewRouter()
	router.Get(CallbackPath, r.handle)
	r.server = &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second}

	go func() {
		if err := r.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.finish("", err)
		}
	}()
	return r, nil
}

func bind(from, to int) (net.Listener, error) {
	for port := from; port <= to; port++ {
		if ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port)); err == nil {
			return ln, nil
		}
	}
	return nil, fmt.Errorf("oauth: no free port in %d-%d", from, to)
}

// Expect sets the state value the redirect must carry.
func (r *Receiver) Expect(state string) {
	r.mu.Lock()
	r.state = state
	r.mu.Unlock()
}

func (r *Receiver) Port() int { return r.port }

// RedirectURI uses localhost, which is what providers accept for desktop
// apps, while the listener is bound to 127.0.0.1.
func (r *Receiver) RedirectURI() string {
	return fmt.Sprintf("http://localhost:%d%s", r.port, CallbackPath)
}

func (r *Receiver) finish(code string, err error) {
	r.once.Do(func() { r.done <- outcome{code, err} })
}

func (r *Receiver) handle(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	r.mu.Lock()
	want := r.state
	r.mu.Unlock()

	var (
		err  error
		note string
	)
	switch {
	case q.Get("error") != "":
		note = q.Get("error_description")
		err = fmt.Errorf("%w: %s: %s", domain.ErrAuthInvalid, q.Get("error"), note)
	case q.Get("state") != want:
		note = "The state parameter did not match."
		err = ErrStateMismatch
	case q.Get("code") == "":
		note = "No authorization code was received."
		err = fmt.Errorf("%w: no authorization code received", domain.ErrAuthInvalid)
	}

	if err != nil {
		r.finish("", err)
		render(w, http.StatusBadRequest, "Authorization failed", note)
		return
	}
	r.finish(q.Get("code"), nil)
	render(w, http.StatusOK, "Authorization successful", "You can close this window and return to intake.")
}

func render(w http.ResponseWriter, status int, title, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = page.Execute(w, struct{ Title, Message string }{title, message})
}

// Wait returns the authorization code from the first redirect.
func (r *Receiver) Wait(ctx context.Context) (string, error) {
	select {
	case o := <-r.done:
		return o.code, o.err
	case <-ctx.Done():
		return "", fmt.Errorf("waiting for authorization callback: %w", ctx.Err())
	}
}

func (r *Receiver) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.server.Shutdown(ctx)
}

// OpenBrowser asks the desktop to open url.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux", "freebsd", "openbsd":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("no browser launcher for %s", runtime.GOOS)
	}
	return cmd.Start()
}
