package authentication

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/esmart-iot/esmart-api/internal/pkg/application"
	"github.com/esmart-iot/esmart-api/internal/pkg/infrastructure/logging"
	"github.com/esmart-iot/esmart-api/internal/pkg/infrastructure/repositories/database"
	"github.com/esmart-iot/esmart-api/pkg/types"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"
)

const ProviderGoogle string = "google"

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	FrontendURL  string
}

type GoogleLogin interface {
	AuthCodeURL(state string) string
	Callback(ctx context.Context, code string) (types.OAuthResult, error)
}

type googleLogin struct {
	oauth       *oauth2.Config
	userInfoURL string
	frontendURL string
	client      *http.Client
	users       database.UserRepository
	issuer      *TokenIssuer
}

type googleProfile struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

func NewGoogleLogin(cfg GoogleConfig, issuer *TokenIssuer, users database.UserRepository) GoogleLogin {
	return &googleLogin{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		userInfoURL: cfg.UserInfoURL,
		frontendURL: strings.TrimSuffix(cfg.FrontendURL, "/"),
		client:      &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		users:       users,
		issuer:      issuer,
	}
}

func (g *googleLogin) AuthCodeURL(state string) string {
	return g.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

func (g *googleLogin) Callback(ctx context.Context, code string) (types.OAuthResult, error) {
	log := logging.GetLoggerFromContext(ctx)

	ctx = context.WithValue(ctx, oauth2.HTTPClient, g.client)

	token, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		log.Error().Err(err).Msg("code exchange failed")
		return types.OAuthResult{}, application.NewError(application.ErrBadRequest, "Failed to obtain access token")
	}

	profile, err := g.fetchProfile(ctx, token)
	if err != nil {
		log.Error().Err(err).Msg("failed to fetch user info")
		return types.OAuthResult{}, application.NewError(application.ErrBadRequest, "Failed to fetch user info")
	}

	if profile.Email == "" || profile.ID == "" {
		return types.OAuthResult{}, application.NewError(application.ErrBadRequest, "Incomplete user info from provider")
	}

	user, err := g.upsert(ctx, profile)
	if err != nil {
		return types.OAuthResult{}, err
	}

	if !user.IsActive {
		return types.OAuthResult{}, application.NewError(application.ErrForbidden, "Inactive user")
	}

	access, _, err := g.issuer.IssueAccessToken(user.ID)
	if err != nil {
		return types.OAuthResult{}, err
	}

	return types.OAuthResult{
		Message:     "Authentication successful",
		RedirectURL: fmt.Sprintf("%s/?token=%s", g.frontendURL, url.QueryEscape(access)),
	}, nil
}

func (g *googleLogin) fetchProfile(ctx context.Context, token *oauth2.Token) (googleProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return googleProfile{}, err
	}

	resp, err := g.oauth.Client(ctx, token).Do(req)
	if err != nil {
		return googleProfile{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return googleProfile{}, fmt.Errorf("user info request returned status code %d", resp.StatusCode)
	}

	profile := googleProfile{}
	err = json.NewDecoder(resp.Body).Decode(&profile)

	return profile, err
}

func (g *googleLogin) upsert(ctx context.Context, profile googleProfile) (database.User, error) {
	provider := ProviderGoogle

	user, err := g.users.GetByEmail(ctx, profile.Email)
	if err == nil {
		if profile.Name != "" {
			user.Fullname = profile.Name
		}
		if profile.Picture != "" {
			user.AvatarURL = &profile.Picture
		}
		user.Provider = &provider
		user.ProviderID = &profile.ID

		return user, g.users.Update(ctx, &user)
	}

	if !errors.Is(err, database.ErrNotFound) {
		return database.User{}, err
	}

	user = database.User{
		Fullname:   profile.Name,
		Role:       application.RoleUser,
		Email:      profile.Email,
		IsActive:   true,
		Provider:   &provider,
		ProviderID: &profile.ID,
	}

	if profile.Picture != "" {
		user.AvatarURL = &profile.Picture
	}

	return user, g.users.Create(ctx, &user)
}
