package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"github.com/hashicorp/go-retryablehttp"
	"google.golang.org/api/option"

	"github.com/xyz-asif/roadwatch/internal/config"
)

// Identity is the account provider behind sign-up, sign-in and sign-out
type Identity interface {
	// CreateAccount returns the new account's UID
	CreateAccount(ctx context.Context, email, password string) (string, error)
	// VerifyPassword returns the UID of the matching account or ErrInvalidCredentials
	VerifyPassword(ctx context.Context, email, password string) (string, error)
	// RevokeSessions invalidates the provider's refresh tokens for uid
	RevokeSessions(ctx context.Context, uid string) error
}

// InitFirebase initializes the Firebase Admin SDK and returns the Auth client
func InitFirebase(ctx context.Context, cfg *config.Config) (*fbauth.Client, error) {
	var opts []option.ClientOption
	if cfg.FirebaseServiceAccountPath != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.FirebaseServiceAccountPath))
	}

	var fbConfig *firebase.Config
	if cfg.FirebaseProjectID != "" {
		fbConfig = &firebase.Config{ProjectID: cfg.FirebaseProjectID}
	}

	app, err := firebase.NewApp(ctx, fbConfig, opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firebase auth client: %w", err)
	}

	return client, nil
}

// FirebaseIdentity creates and revokes accounts through the Admin SDK and
// verifies passwords through the Identity Toolkit REST API.
type FirebaseIdentity struct {
	client     *fbauth.Client
	http       *retryablehttp.Client
	apiKey     string
	toolkitURL string
}

func NewFirebaseIdentity(client *fbauth.Client, httpClient *retryablehttp.Client, apiKey, toolkitURL string) *FirebaseIdentity {
	return &FirebaseIdentity{
		client:     client,
		http:       httpClient,
		apiKey:     apiKey,
		toolkitURL: strings.TrimRight(toolkitURL, "/"),
	}
}

func (f *FirebaseIdentity) CreateAccount(ctx context.Context, email, password string) (string, error) {
	params := (&fbauth.UserToCreate{}).Email(email).Password(password)
	record, err := f.client.CreateUser(ctx, params)
	if err != nil {
		if fbauth.IsEmailAlreadyExists(err) {
			return "", ErrEmailTaken
		}
		return "", fmt.Errorf("%w: %v", ErrIdentityUnavailable, err)
	}
	return record.UID, nil
}

type passwordSignInRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type passwordSignInResponse struct {
	LocalID string `json:"localId"`
	Email   string `json:"email"`
}

type toolkitError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// credential failures reported by accounts:signInWithPassword
var credentialErrors = map[string]bool{
	"EMAIL_NOT_FOUND":           true,
	"INVALID_PASSWORD":          true,
	"INVALID_LOGIN_CREDENTIALS": true,
	"USER_DISABLED":             true,
	"INVALID_EMAIL":             true,
}

func (f *FirebaseIdentity) VerifyPassword(ctx context.Context, email, password string) (string, error) {
	body, err := json.Marshal(passwordSignInRequest{Email: email, Password: password, ReturnSecureToken: true})
	if err != nil {
		return "", err
	}

	endpoint := f.toolkitURL + "/accounts:signInWithPassword?key=" + url.QueryEscape(f.apiKey)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrIdentityUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var tkErr toolkitError
		_ = json.NewDecoder(resp.Body).Decode(&tkErr)
		// messages look like "INVALID_PASSWORD" or "TOO_MANY_ATTEMPTS_TRY_LATER : ..."
		code := strings.TrimSpace(strings.SplitN(tkErr.Error.Message, ":", 2)[0])
		if credentialErrors[code] {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("%w: sign-in returned %d %s", ErrIdentityUnavailable, resp.StatusCode, code)
	}

	var out passwordSignInResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode sign-in response: %v", ErrIdentityUnavailable, err)
	}
	if out.LocalID == "" {
		return "", ErrInvalidCredentials
	}
	return out.LocalID, nil
}

func (f *FirebaseIdentity) RevokeSessions(ctx context.Context, uid string) error {
	if err := f.client.RevokeRefreshTokens(ctx, uid); err != nil {
		return fmt.Errorf("%w: %v", ErrIdentityUnavailable, err)
	}
	return nil
}
