package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"liarchive/pkg/errors"
	"liarchive/pkg/logger"
)

const (
	defaultAuthorizeURL = "https://www.linkedin.com/oauth/v2/authorization"
	defaultTokenURL     = "https://www.linkedin.com/oauth/v2/accessToken"
	defaultCallbackPort = 8765
	callbackPath        = "/callback"

	// oauthScopes covers reading the member's profile and posts.
	oauthScopes = "openid profile email w_member_social"
)

// Authenticator runs the OAuth authorization-code flow: it opens a local
// callback server, hands the user the authorization URL, and exchanges the
// returned code for an access token.
type Authenticator struct {
	clientID     string
	clientSecret string
	callbackPort int

	authorizeURL string
	tokenURL     string
	httpClient   *http.Client

	logger logger.Logger
}

// NewAuthenticator creates an authenticator for the given OAuth application.
func NewAuthenticator(clientID, clientSecret string, log logger.Logger) *Authenticator {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Authenticator{
		clientID:     clientID,
		clientSecret: clientSecret,
		callbackPort: defaultCallbackPort,
		authorizeURL: defaultAuthorizeURL,
		tokenURL:     defaultTokenURL,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		logger:       log,
	}
}

func (a *Authenticator) redirectURI() string {
	return fmt.Sprintf("http://localhost:%d%s", a.callbackPort, callbackPath)
}

// AuthorizeURL builds the URL the user must open to grant access.
func (a *Authenticator) AuthorizeURL(state string) string {
	params := url.Values{}
	params.Set("response_type", "code")
	params.Set("client_id", a.clientID)
	params.Set("redirect_uri", a.redirectURI())
	params.Set("state", state)
	params.Set("scope", oauthScopes)
	return a.authorizeURL + "?" + params.Encode()
}

// Login runs the full flow: serve the callback, wait for the authorization
// code, exchange it for a token. The context bounds the whole wait.
func (a *Authenticator) Login(ctx context.Context) (*Token, error) {
	state, err := randomState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state: %w", err)
	}

	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if query.Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			errCh <- errors.New(errors.ErrorTypeAuth, "callback state mismatch", 0)
			return
		}
		if errParam := query.Get("error"); errParam != "" {
			http.Error(w, "authorization denied", http.StatusBadRequest)
			errCh <- errors.New(errors.ErrorTypeAuth,
				fmt.Sprintf("authorization denied: %s", errParam), 0)
			return
		}
		code := query.Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			errCh <- errors.New(errors.ErrorTypeAuth, "callback carried no code", 0)
			return
		}

		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html><body><h2>Authorized.</h2><p>You can close this window and return to the terminal.</p></body></html>")
		codeCh <- code
	})

	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", a.callbackPort))
	if err != nil {
		return nil, fmt.Errorf("failed to start callback server: %w", err)
	}
	server := &http.Server{Handler: mux}
	go server.Serve(listener)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	fmt.Printf("Open this URL in your browser to authorize:\n\n  %s\n\n", a.AuthorizeURL(state))
	a.logger.Info("waiting for authorization callback")

	var code string
	select {
	case code = <-codeCh:
	case err := <-errCh:
		return nil, err
	case <-ctx.Done():
		return nil, errors.Wrap(errors.ErrorTypeAuth, ctx.Err(), "authorization timed out")
	}

	return a.ExchangeCode(code)
}

// ExchangeCode trades an authorization code for an access token.
func (a *Authenticator) ExchangeCode(code string) (*Token, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", a.redirectURI())
	form.Set("client_id", a.clientID)
	form.Set("client_secret", a.clientSecret)

	resp, err := a.httpClient.Post(a.tokenURL, "application/x-www-form-urlencoded",
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeNetwork, err, "token exchange failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeNetwork, err, "failed to read token response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New(errors.ErrorTypeAuth,
			fmt.Sprintf("token exchange returned status %d: %s", resp.StatusCode, string(body)), resp.StatusCode)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
		Scope       string `json:"scope"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, errors.Wrap(errors.ErrorTypeMalformedRecord, err, "failed to parse token response")
	}
	if payload.AccessToken == "" {
		return nil, errors.New(errors.ErrorTypeAuth, "token response carried no access token", 0)
	}

	now := time.Now()
	token := &Token{
		AccessToken: payload.AccessToken,
		Scope:       payload.Scope,
		ObtainedAt:  now,
	}
	if payload.ExpiresIn > 0 {
		token.ExpiresAt = now.Add(time.Duration(payload.ExpiresIn) * time.Second)
	}

	a.logger.InfoWithFields("obtained access token", map[string]interface{}{
		"token": MaskToken(token.AccessToken),
		"scope": token.Scope,
	})
	return token, nil
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
