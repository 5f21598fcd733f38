package credentials

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/yt-showcase/internal/metrics"
	"github.com/yt-showcase/internal/models"
	"golang.org/x/oauth2"
)

const callbackPath = "/callback"

// Opener presents the consent URL to the user, usually by launching a browser
type Opener func(url string) error

// ConsentFlow runs the interactive authorization-code exchange against a
// loopback callback listener and stores the resulting credential.
type ConsentFlow struct {
	OAuth   *oauth2.Config
	Store   Store
	Port    int
	Timeout time.Duration
	Open    Opener
	Out     io.Writer
	Logger  *slog.Logger
}

type callbackResult struct {
	code string
	err  error
}

// Run blocks until the user completes consent, the timeout elapses, or ctx is cancelled
func (f *ConsentFlow) Run(ctx context.Context) (*Credential, error) {
	logger := f.Logger
	if logger == nil {
		logger = slog.Default()
	}
	out := f.Out
	if out == nil {
		out = io.Discard
	}

	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", f.Port))
	if err != nil {
		return nil, models.NewAuthenticationError("failed to start callback listener", err)
	}

	conf := *f.OAuth
	conf.RedirectURL = fmt.Sprintf("http://127.0.0.1:%d%s", ln.Addr().(*net.TCPAddr).Port, callbackPath)

	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()
	authURL := conf.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.ApprovalForce,
		oauth2.S256ChallengeOption(verifier),
	)

	results := make(chan callbackResult, 1)
	mux := http.NewServeMux()
	mux.Handle(callbackPath, callbackHandler(state, results))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("callback listener stopped", slog.Any("error", err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	fmt.Fprintf(out, "Opening browser for authorization...\n")
	if f.Open == nil || f.Open(authURL) != nil {
		fmt.Fprintf(out, "Could not open browser. Please visit:\n%s\n", authURL)
	}
	fmt.Fprintf(out, "Waiting for authorization on %s...\n", conf.RedirectURL)

	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	var code string
	select {
	case res := <-results:
		if res.err != nil {
			return nil, models.NewAuthenticationError("consent was not granted", res.err)
		}
		code = res.code
	case <-ctx.Done():
		return nil, models.NewAuthenticationError("consent flow did not complete", ctx.Err())
	}

	tok, err := conf.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, models.NewAuthenticationError("failed to exchange authorization code", err)
	}
	metrics.CredentialEvents.WithLabelValues("consent").Inc()

	cred := FromToken(tok, conf.Scopes)
	if err := f.Store.Save(cred); err != nil {
		return nil, models.NewAuthenticationError("failed to persist credential", err)
	}
	metrics.CredentialEvents.WithLabelValues("persisted").Inc()

	logger.Info("credential stored", slog.Time("expiry", cred.Expiry), slog.Bool("refreshable", cred.CanRefresh()))
	return cred, nil
}

// callbackHandler accepts the first redirect carrying the expected state.
// Requests with a foreign state are rejected and do not end the flow.
func callbackHandler(state string, results chan<- callbackResult) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("state") != state {
			http.Error(w, "invalid state parameter", http.StatusBadRequest)
			return
		}

		var res callbackResult
		switch {
		case q.Get("error") != "":
			res.err = fmt.Errorf("authorization denied: %s", q.Get("error"))
		case q.Get("code") == "":
			res.err = errors.New("authorization response has no code")
		default:
			res.code = q.Get("code")
		}

		select {
		case results <- res:
		default:
		}

		if res.err != nil {
			http.Error(w, res.err.Error(), http.StatusBadRequest)
			return
		}
		fmt.Fprintln(w, "Authorization complete. You can close this window.")
	})
}
