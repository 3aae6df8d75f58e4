package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"
)

// Authorize makes sure the manager holds a token, running the installed-app
// browser flow against a loopback callback server when the cache is empty.
// openURL, when non-nil, is invoked with the consent URL; the URL is always
// printed so it can be opened manually.
func (t *Token) Authorize(ctx context.Context, openURL func(string)) error {
	_, err := t.OAuthToken()
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrTokenNotSet) {
		return fmt.Errorf("tok.OAuthToken failed: %w", err)
	}

	ln, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		return fmt.Errorf("net.Listen failed: %w", err)
	}

	t.mu.Lock()
	t.cfg.RedirectURL = fmt.Sprintf("http://%s/oauth", ln.Addr().String())
	t.mu.Unlock()

	consentURL, err := t.ConsentURL()
	if err != nil {
		return fmt.Errorf("ConsentURL failed: %w", err)
	}

	done := make(chan error, 1)
	mux := http.NewServeMux()
	mux.Handle("/oauth", &callbackHandler{tok: t, done: done})
	srv := &http.Server{Handler: mux}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			done <- fmt.Errorf("srv.Serve failed: %w", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Println(fmt.Errorf("srv.Shutdown failed: %w", err))
		}
	}()

	log.Println("Open the following link in your browser to authorize access:")
	log.Println(consentURL)
	if openURL != nil {
		openURL(consentURL)
	}

	select {
	case err := <-done:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		return ctx.Err()
	}

	tok, err := t.OAuthToken()
	if err != nil {
		return fmt.Errorf("tok.OAuthToken failed: %w", err)
	}
	log.Printf("Authorization complete, token %s expires %s", maskLeft(tok.AccessToken), tok.Expiry.Format(time.RFC3339))

	return nil
}

type callbackHandler struct {
	tok  *Token
	done chan<- error
}

func (h *callbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "Missing authorization code", http.StatusBadRequest)
		return
	}

	state := r.URL.Query().Get("state")
	if err := h.tok.AuthorizeCode(r.Context(), code, state); err != nil {
		log.Println("h.tok.AuthorizeCode failed", err)
		http.Error(w, "Unable to authorize provided code", http.StatusBadRequest)
		h.done <- fmt.Errorf("AuthorizeCode failed: %w", err)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintln(w, "Authorization complete, you can close this tab.")
	h.done <- nil
}

func maskLeft(s string) string {
	rs := []rune(s)
	for i := 0; i < len(rs)-4; i++ {
		rs[i] = 'X'
	}
	return string(rs)
}
