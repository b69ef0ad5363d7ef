package http

import (
	"log/slog"
	"net/http"
	"time"

	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/aussiebroadwan/oauth2d/internal/oauth2d/http/docs" // Swagger docs
	"github.com/aussiebroadwan/oauth2d/internal/oauth2d/policy"
	"github.com/aussiebroadwan/oauth2d/internal/oauth2d/registry"
	"github.com/aussiebroadwan/oauth2d/internal/oauth2d/service"
	"github.com/aussiebroadwan/oauth2d/internal/oauth2d/store"
	"github.com/aussiebroadwan/oauth2d/pkg/httpx"
	"github.com/aussiebroadwan/oauth2d/pkg/jwtx"
	"github.com/aussiebroadwan/oauth2d/pkg/slogx"
)

// RateLimits configures the per-route limiters. A zero config disables
// limiting for that group.
type RateLimits struct {
	// Token covers /oauth/token, keyed by address and client.
	Token httpx.RateLimitConfig

	// Authorize covers /oauth/authorize, keyed by address and username.
	Authorize httpx.RateLimitConfig

	// Client covers token_key, check_token and the key admin routes.
	Client httpx.RateLimitConfig

	// Public covers the resource, JWKS and health routes.
	Public httpx.RateLimitConfig
}

// DefaultRateLimits is what the server runs with unless overridden.
func DefaultRateLimits() RateLimits {
	return RateLimits{
		Token:     httpx.LenientLimit,
		Authorize: httpx.StrictLimit,
		Client:    httpx.LenientLimit,
		Public:    httpx.PublicLimit,
	}
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *jwtx.KeyManager
	store        store.Store
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	RateLimits RateLimits

	Clients     *registry.Registry
	Policy      *policy.Policy
	Tokens      *service.TokenService
	Grants      *service.GrantAuthorizer
	Authorize   *service.AuthorizationService
	KeyRotation *service.KeyRotationService
}

func NewRouter(
	keys *jwtx.KeyManager,
	st store.Store,
	buildVersion string,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		store:        st,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		RateLimits:   DefaultRateLimits(),
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerOAuth2()
	r.registerResource()
	r.registerKeys()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title						oauth2d
//	@version					0.1.0
//	@description				A minimal OAuth2 authorization server issuing JWT access and refresh tokens.
//	@description
//	@description				Tokens are signed with RS256 or HS256. RS256 keys can be verified using the JWKS or token_key endpoints.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/oauth2d
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.basic	ClientBasic
//	@description				OAuth2 client credentials, form-encoded then base64 encoded.
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerOAuth2() {
	// POST /oauth/token - the policy requires an authenticated client
	tokenHandler := &TokenHandler{Grants: r.Grants, Tokens: r.Tokens}
	r.Mux.Handle("POST /oauth/token",
		httpx.Chain(
			r.secured(tokenHandler, policy.EndpointToken, r.clientCaller, writeError),
			httpx.RateLimitByClient(r.RateLimits.Token),
		),
	)

	// GET /oauth/token_key - anonymous or trusted clients
	r.Mux.Handle("GET /oauth/token_key",
		httpx.Chain(
			r.secured(TokenKeyHandler(r.keys), policy.EndpointTokenKey, r.clientCaller, writeError),
			httpx.RateLimitByClient(r.RateLimits.Client),
		),
	)

	// POST /oauth/check_token - trusted clients only. The policy runs
	// before the token is looked at.
	checkHandler := &CheckTokenHandler{Tokens: r.Tokens}
	r.Mux.Handle("POST /oauth/check_token",
		httpx.Chain(
			r.secured(checkHandler, policy.EndpointCheckToken, r.clientCaller, writeError),
			httpx.RateLimitByClient(r.RateLimits.Client),
		),
	)

	// /oauth/authorize - checks user credentials, so limited by address and
	// username to slow down guessing
	authorizeHandler := httpx.Chain(&AuthorizeHandler{Authorize: r.Authorize},
		httpx.RateLimitMiddleware(r.RateLimits.Authorize,
			httpx.CompositeKeyExtractor("|", httpx.IPKeyExtractor, httpx.PostFormFieldKeyExtractor("username")),
		),
	)
	r.Mux.Handle("GET /oauth/authorize", authorizeHandler)
	r.Mux.Handle("POST /oauth/authorize", authorizeHandler)

	r.Mux.Handle("GET /.well-known/jwks.json",
		httpx.Chain(JWKSHandler(r.keys),
			httpx.RateLimitByIP(r.RateLimits.Public),
		),
	)
}

func (r *Router) registerResource() {
	// GET / only; other paths fall through to the mux's 404.
	r.Mux.Handle("GET /{$}",
		httpx.Chain(
			r.secured(ResourceHandler(), policy.EndpointResource, r.bearerCaller, writeBearerError),
			httpx.RateLimitByIP(r.RateLimits.Public),
		),
	)
}

func (r *Router) registerKeys() {
	h := &KeysHandler{KeyRotation: r.KeyRotation}

	r.Mux.Handle("GET /oauth/keys",
		httpx.Chain(
			r.secured(http.HandlerFunc(h.HandleList), policy.EndpointKeysAdmin, r.clientCaller, writeError),
			httpx.RateLimitByClient(r.RateLimits.Client),
		),
	)
	r.Mux.Handle("POST /oauth/keys/rotate",
		httpx.Chain(
			r.secured(http.HandlerFunc(h.HandleRotate), policy.EndpointKeysAdmin, r.clientCaller, writeError),
			httpx.RateLimitByClient(r.RateLimits.Client),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - monitoring systems may poll frequently
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion, r.keys.Algorithm()),
			httpx.RateLimitByIP(r.RateLimits.Public),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.keys),
			httpx.RateLimitByIP(r.RateLimits.Public),
		),
	)
}
