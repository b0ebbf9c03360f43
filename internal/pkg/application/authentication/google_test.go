package authentication

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/esmart-iot/esmart-api/internal/pkg/application"
)

func TestThatCallbackCreatesANewUser(t *testing.T) {
	is, ctx, store, _ := testSetupSessions(t)

	provider := newFakeProvider(http.StatusOK, `{"id":"g-1","email":"carol@example.com","name":"Carol","picture":"http://pics/c.png"}`)
	defer provider.Close()

	issuer := NewTokenIssuer(Config{AccessSecret: "access", RefreshSecret: "refresh"})
	g := NewGoogleLogin(googleConfig(provider.URL), issuer, store.Users())

	result, err := g.Callback(ctx, "the-code")
	is.NoErr(err)
	is.Equal(result.Message, "Authentication successful")
	is.True(strings.HasPrefix(result.RedirectURL, "http://frontend/?token="))

	u, _ := url.Parse(result.RedirectURL)
	claims, err := issuer.DecodeAccessToken(u.Query().Get("token"))
	is.NoErr(err)

	user, err := store.Users().GetByEmail(ctx, "carol@example.com")
	is.NoErr(err)
	is.Equal(claims.Subject, user.ID)
	is.Equal(*user.Provider, "google")
	is.Equal(*user.ProviderID, "g-1")
	is.True(user.IsActive)
	is.True(user.Password == nil)
}

func TestThatCallbackUpdatesAnExistingUser(t *testing.T) {
	is, ctx, store, _ := testSetupSessions(t)
	alice := createUser(ctx, is, store, "alice@example.com", "secret", true)

	provider := newFakeProvider(http.StatusOK, `{"id":"g-2","email":"alice@example.com","name":"Alice G","picture":"http://pics/a.png"}`)
	defer provider.Close()

	issuer := NewTokenIssuer(Config{AccessSecret: "access", RefreshSecret: "refresh"})
	g := NewGoogleLogin(googleConfig(provider.URL), issuer, store.Users())

	_, err := g.Callback(ctx, "the-code")
	is.NoErr(err)

	user, err := store.Users().GetByID(ctx, alice.ID)
	is.NoErr(err)
	is.Equal(user.Fullname, "Alice G")
	is.Equal(*user.AvatarURL, "http://pics/a.png")
	is.True(user.Password != nil)
}

func TestThatCallbackKeepsStoredProfileValuesWhenProviderOmitsThem(t *testing.T) {
	is, ctx, store, _ := testSetupSessions(t)
	alice := createUser(ctx, is, store, "alice@example.com", "secret", true)

	avatar := "http://pics/old.png"
	alice.Fullname = "Alice Original"
	alice.AvatarURL = &avatar
	is.NoErr(store.Users().Update(ctx, &alice))

	provider := newFakeProvider(http.StatusOK, `{"id":"g-2","email":"alice@example.com"}`)
	defer provider.Close()

	issuer := NewTokenIssuer(Config{AccessSecret: "access", RefreshSecret: "refresh"})
	g := NewGoogleLogin(googleConfig(provider.URL), issuer, store.Users())

	_, err := g.Callback(ctx, "the-code")
	is.NoErr(err)

	user, err := store.Users().GetByID(ctx, alice.ID)
	is.NoErr(err)
	is.Equal(user.Fullname, "Alice Original")
	is.Equal(*user.AvatarURL, "http://pics/old.png")
	is.Equal(*user.ProviderID, "g-2")
}

func TestThatCallbackLeavesAvatarEmptyForNewUsersWithoutPicture(t *testing.T) {
	is, ctx, store, _ := testSetupSessions(t)

	provider := newFakeProvider(http.StatusOK, `{"id":"g-4","email":"dave@example.com","name":"Dave"}`)
	defer provider.Close()

	issuer := NewTokenIssuer(Config{AccessSecret: "access", RefreshSecret: "refresh"})
	g := NewGoogleLogin(googleConfig(provider.URL), issuer, store.Users())

	_, err := g.Callback(ctx, "the-code")
	is.NoErr(err)

	user, err := store.Users().GetByEmail(ctx, "dave@example.com")
	is.NoErr(err)
	is.True(user.AvatarURL == nil)
}

func TestThatCallbackFailsWhenProfileCannotBeFetched(t *testing.T) {
	is, ctx, store, _ := testSetupSessions(t)

	provider := newFakeProvider(http.StatusInternalServerError, `{}`)
	defer provider.Close()

	issuer := NewTokenIssuer(Config{AccessSecret: "access", RefreshSecret: "refresh"})
	g := NewGoogleLogin(googleConfig(provider.URL), issuer, store.Users())

	_, err := g.Callback(ctx, "the-code")
	is.True(errors.Is(err, application.ErrBadRequest))
}

func TestThatCallbackFailsWhenProfileLacksEmail(t *testing.T) {
	is, ctx, store, _ := testSetupSessions(t)

	provider := newFakeProvider(http.StatusOK, `{"id":"g-3","name":"No Mail"}`)
	defer provider.Close()

	issuer := NewTokenIssuer(Config{AccessSecret: "access", RefreshSecret: "refresh"})
	g := NewGoogleLogin(googleConfig(provider.URL), issuer, store.Users())

	_, err := g.Callback(ctx, "the-code")
	is.True(errors.Is(err, application.ErrBadRequest))
}

func TestThatAuthCodeURLCarriesState(t *testing.T) {
	is, _, store, _ := testSetupSessions(t)

	issuer := NewTokenIssuer(Config{AccessSecret: "access", RefreshSecret: "refresh"})
	g := NewGoogleLogin(googleConfig("http://provider"), issuer, store.Users())

	u, err := url.Parse(g.AuthCodeURL("abc"))
	is.NoErr(err)
	is.Equal(u.Query().Get("state"), "abc")
	is.Equal(u.Query().Get("client_id"), "client")
}

func googleConfig(providerURL string) GoogleConfig {
	return GoogleConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost/user/auth/callback",
		AuthURL:      providerURL + "/auth",
		TokenURL:     providerURL + "/token",
		UserInfoURL:  providerURL + "/userinfo",
		FrontendURL:  "http://frontend/",
	}
}

func newFakeProvider(userInfoStatus int, userInfo string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/token":
			r.ParseForm()
			if r.Form.Get("code") != "the-code" {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"error":"invalid_grant"}`))
				return
			}
			w.Write([]byte(`{"access_token":"provider-token","token_type":"Bearer","expires_in":3600}`))
		case "/userinfo":
			if r.Header.Get("Authorization") != "Bearer provider-token" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.WriteHeader(userInfoStatus)
			w.Write([]byte(userInfo))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}
