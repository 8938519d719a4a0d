package auth

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"

	"github.com/buildzap/QuickNotesAI-sub002/pkg/syncerr"
)

// LocalhostAuthPort is the port the local redirect server listens on. The
// OAuth client's registered redirect URI must point here.
const LocalhostAuthPort = "6789"

// BrowserFlow implements ConsentFlow by running a local web server to
// capture the OAuth redirect while the user grants access in a browser.
type BrowserFlow struct {
	Port string
	Out  io.Writer
}

// Authorize starts the local server, prints the authorization URL, and
// suspends until the provider redirects back, the user dismisses the consent
// surface, or the context expires.
func (f *BrowserFlow) Authorize(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
	port := f.Port
	if port == "" {
		port = LocalhostAuthPort
	}
	out := f.Out
	if out == nil {
		out = os.Stdout
	}

	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	listener, err := net.Listen("tcp", fmt.Sprintf(":%s", port))
	if err != nil {
		return nil, fmt.Errorf("failed to start listener on port %s: %w", port, err)
	}
	defer listener.Close()

	server := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if denied := r.URL.Query().Get("error"); denied != "" {
				http.Error(w, "Authorization was denied. You can close this window.", http.StatusForbidden)
				errCh <- syncerr.New(syncerr.KindCancelled, "consent prompt was dismissed")
				return
			}
			code := r.URL.Query().Get("code")
			if code == "" {
				http.Error(w, "Authorization code not found", http.StatusBadRequest)
				errCh <- fmt.Errorf("authorization code not found in redirect URL")
				return
			}
			fmt.Fprintf(w, "Authentication successful! You can close this window.")
			codeCh <- code
		}),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	go func() {
		if serveErr := server.Serve(listener); serveErr != nil && serveErr != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server error: %w", serveErr)
		}
	}()

	// AccessTypeOffline ensures a refresh token comes back with the grant.
	authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"))
	fmt.Fprintf(out, "Open the following URL in your browser to connect Google Calendar:\n%s\n", authURL)

	select {
	case authCode := <-codeCh:
		exchangeCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		tok, err := config.Exchange(exchangeCtx, authCode)
		if err != nil {
			return nil, fmt.Errorf("unable to retrieve token from Google: %w", err)
		}
		server.Shutdown(exchangeCtx)
		return tok, nil
	case err := <-errCh:
		server.Shutdown(context.Background())
		return nil, err
	case <-ctx.Done():
		server.Shutdown(context.Background())
		if ctx.Err() == context.DeadlineExceeded {
			return nil, syncerr.Wrap(syncerr.KindTimeout, "authorization timed out", ctx.Err())
		}
		return nil, syncerr.Wrap(syncerr.KindCancelled, "authorization cancelled", ctx.Err())
	}
}
