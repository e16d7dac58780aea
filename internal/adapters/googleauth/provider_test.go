package googleauth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	apperrors "github.com/Liad-hossain/test-voice-export/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func serviceAccountJSON(t *testing.T, tokenURI string) []byte {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	pemKey := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})

	raw, err := json.Marshal(map[string]string{
		"type":           "service_account",
		"project_id":     "test-project",
		"private_key_id": "kid-1",
		"private_key":    string(pemKey),
		"client_email":   "sync@test-project.iam.gserviceaccount.com",
		"client_id":      "1234",
		"token_uri":      tokenURI,
	})
	require.NoError(t, err)
	return raw
}

func tokenServer(t *testing.T, calls *atomic.Int32, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "urn:ietf:params:oauth:grant-type:jwt-bearer", r.PostForm.Get("grant_type"))
		assert.NotEmpty(t, r.PostForm.Get("assertion"))

		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":"unauthorized_client","error_description":"Client is unauthorized"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"ya29.test","token_type":"Bearer","expires_in":3600}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestProvider_TokenIsCached(t *testing.T) {
	var calls atomic.Int32
	srv := tokenServer(t, &calls, http.StatusOK)

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, srv.Client())
	p, err := NewProvider(ctx, Config{
		CredentialsJSON: serviceAccountJSON(t, srv.URL),
		Subject:         "admin@example.com",
		Scopes:          []string{"https://www.googleapis.com/auth/ediscovery"},
	})
	require.NoError(t, err)
	assert.Equal(t, "sync@test-project.iam.gserviceaccount.com", p.Email())

	for range 3 {
		tok, err := p.Token(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "ya29.test", tok)
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestProvider_RejectedExchangeIsAuthError(t *testing.T) {
	var calls atomic.Int32
	srv := tokenServer(t, &calls, http.StatusUnauthorized)

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, srv.Client())
	p, err := NewProvider(ctx, Config{
		CredentialsJSON: serviceAccountJSON(t, "https://oauth2.invalid/token"),
		Scopes:          []string{"scope"},
		TokenURL:        srv.URL,
	})
	require.NoError(t, err)

	_, err = p.Token(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsAuth(err), "got %v", err)
	assert.Equal(t, int32(1), calls.Load(), "no retry on rejected exchange")
}

func TestNewProvider_Validation(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{Scopes: []string{"s"}})
	assert.True(t, apperrors.IsAuth(err))

	_, err = NewProvider(context.Background(), Config{CredentialsJSON: []byte(`{}`)})
	assert.True(t, apperrors.IsAuth(err))

	_, err = NewProvider(context.Background(), Config{CredentialsJSON: []byte(`not json`), Scopes: []string{"s"}})
	assert.True(t, apperrors.IsAuth(err))
}

func TestProvider_HTTPClientAddsBearer(t *testing.T) {
	var calls atomic.Int32
	tokens := tokenServer(t, &calls, http.StatusOK)

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer ya29.test", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(api.Close)

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, tokens.Client())
	p, err := NewProvider(ctx, Config{
		CredentialsJSON: serviceAccountJSON(t, tokens.URL),
		Scopes:          []string{"scope"},
	})
	require.NoError(t, err)

	u, err := url.Parse(api.URL)
	require.NoError(t, err)
	resp, err := p.HTTPClient(ctx).Get(u.String())
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}
