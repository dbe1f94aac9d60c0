package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"
)

const graphMeURL = "https://graph.microsoft.com/v1.0/me"

// ErrMicrosoftProfile indica que o Graph não devolveu e-mail utilizável.
var ErrMicrosoftProfile = errors.New("perfil microsoft sem e-mail")

// MicrosoftUser é o subconjunto do /me usado no login.
type MicrosoftUser struct {
	ID    string
	Name  string
	Email string
}

// MicrosoftProvider executa o fluxo authorization code do Azure AD.
type MicrosoftProvider struct {
	oauth      *oauth2.Config
	graphURL   string
	httpClient *http.Client
}

// NewMicrosoftProvider configura o fluxo para o tenant informado.
func NewMicrosoftProvider(clientID, clientSecret, redirectURI, tenant string) *MicrosoftProvider {
	return newMicrosoftProvider(clientID, clientSecret, redirectURI, microsoft.AzureADEndpoint(tenant), graphMeURL, nil)
}

func newMicrosoftProvider(clientID, clientSecret, redirectURI string, endpoint oauth2.Endpoint, graphURL string, client *http.Client) *MicrosoftProvider {
	return &MicrosoftProvider{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Endpoint:     endpoint,
			Scopes:       []string{"openid", "profile", "email", "User.Read"},
		},
		graphURL:   graphURL,
		httpClient: client,
	}
}

// AuthCodeURL monta a URL de autorização com o state anti-CSRF.
func (p *MicrosoftProvider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account"))
}

// Exchange troca o code por token e lê o perfil no Graph.
func (p *MicrosoftProvider) Exchange(ctx context.Context, code string) (*MicrosoftUser, error) {
	if p.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	}
	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("microsoft: troca de code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.graphURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.oauth.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("microsoft: graph: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("microsoft: graph status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var me struct {
		ID                string `json:"id"`
		DisplayName       string `json:"displayName"`
		Mail              string `json:"mail"`
		UserPrincipalName string `json:"userPrincipalName"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&me); err != nil {
		return nil, fmt.Errorf("microsoft: decodificar perfil: %w", err)
	}

	email := strings.TrimSpace(me.Mail)
	if email == "" {
		email = strings.TrimSpace(me.UserPrincipalName)
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, ErrMicrosoftProfile
	}
	name := strings.TrimSpace(me.DisplayName)
	if name == "" {
		name = email
	}

	return &MicrosoftUser{ID: me.ID, Name: name, Email: strings.ToLower(email)}, nil
}
