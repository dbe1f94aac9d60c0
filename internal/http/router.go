package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/gestaozabele/comercial/internal/auth"
	"github.com/gestaozabele/comercial/internal/config"
	"github.com/gestaozabele/comercial/internal/crm"
	httpmiddleware "github.com/gestaozabele/comercial/internal/http/middleware"
	"github.com/gestaozabele/comercial/internal/repo"
	"github.com/gestaozabele/comercial/internal/service"
	"github.com/gestaozabele/comercial/internal/storage"
	"github.com/gestaozabele/comercial/internal/store"
)

const refreshPath = "/api/auth/refresh"

// Check verifica uma dependência para o /ready.
type Check func(ctx context.Context) error

// Deps reúne o que o roteador precisa para montar os serviços.
type Deps struct {
	Store     store.Store
	Auth      *service.AuthService
	Bucket    storage.Bucket
	Fallback  crm.StatusWriter
	Microsoft *auth.MicrosoftProvider
	Checks    map[string]Check
}

type Handler struct {
	cfg     *config.Config
	cookies auth.CookieJar
	checks  map[string]Check

	authService *service.AuthService
	users       *service.UserService
	profiles    *service.ProfileService
	microsoft   *auth.MicrosoftProvider

	clientes      *crm.ClienteService
	oportunidades *crm.OportunidadeService
	status        *crm.StatusTransitioner
	reunioes      *crm.ReuniaoService
	notas         *crm.NotaService
	responsaveis  *crm.ResponsavelService
	orgaos        *crm.OrgaoService
	licitacoes    *crm.LicitacaoService
	documentos    *crm.DocumentoService

	publicLimiter *httpmiddleware.RateLimiter
	authLimiter   *httpmiddleware.RateLimiter
	loginLimiter  *httpmiddleware.RateLimiter
}

// NewRouter devolve roteador configurado.
func NewRouter(cfg *config.Config, deps Deps) http.Handler {
	queries := repo.New(deps.Store)

	h := &Handler{
		cfg:           cfg,
		cookies:       auth.CookieJar{Secure: cfg.Production},
		checks:        deps.Checks,
		authService:   deps.Auth,
		users:         service.NewUserService(queries),
		profiles:      service.NewProfileService(queries),
		microsoft:     deps.Microsoft,
		clientes:      crm.NewClienteService(deps.Store),
		oportunidades: crm.NewOportunidadeService(deps.Store),
		status:        crm.NewStatusTransitioner(crm.NewRemoteStatusWriter(deps.Store), deps.Fallback),
		reunioes:      crm.NewReuniaoService(deps.Store),
		notas:         crm.NewNotaService(deps.Store),
		responsaveis:  crm.NewResponsavelService(deps.Store),
		orgaos:        crm.NewOrgaoService(deps.Store),
		licitacoes:    crm.NewLicitacaoService(deps.Store),
		documentos:    crm.NewDocumentoService(deps.Store, deps.Bucket),
		publicLimiter: httpmiddleware.NewRateLimiter(cfg.RateLimitPublic.RequestsPerSecond, cfg.RateLimitPublic.Burst),
		authLimiter:   httpmiddleware.NewRateLimiter(cfg.RateLimitAuth.RequestsPerSecond, cfg.RateLimitAuth.Burst),
		loginLimiter:  httpmiddleware.NewRateLimiter(cfg.RateLimitLogin.RequestsPerSecond, cfg.RateLimitLogin.Burst),
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(httpmiddleware.Logging)
	r.Use(httpmiddleware.Recover)
	r.Use(httpmiddleware.CORS(cfg.AllowOrigins))
	r.Use(httpmiddleware.Guard(httpmiddleware.GuardConfig{
		Tokens:      deps.Auth.Tokens(),
		Renewer:     deps.Auth,
		Cookies:     h.cookies,
		LoginPath:   cfg.LoginPath,
		RefreshPath: refreshPath,
		Public: []string{
			"/health",
			"/ready",
			cfg.LoginPath,
			"/api/auth/login",
			"/api/auth/register",
			refreshPath,
			"/api/auth/logout",
			"/api/auth/verify",
			"/api/auth/microsoft",
			"/api/auth/microsoft/callback",
		},
	}))

	r.Group(func(public chi.Router) {
		public.Use(httpmiddleware.IPRateLimit(h.publicLimiter))

		public.Get("/health", h.Health)
		public.Get("/ready", h.Ready)

		public.Route("/api/auth", func(a chi.Router) {
			a.Group(func(c chi.Router) {
				c.Use(httpmiddleware.CredentialRateLimit(h.loginLimiter))
				c.Post("/login", h.Login)
				c.Post("/register", h.Register)
				c.Get("/refresh", h.Refresh)
				c.Post("/refresh", h.Refresh)
			})
			a.Post("/logout", h.Logout)
			a.Get("/verify", h.Verify)
			a.Get("/microsoft", h.MicrosoftStart)
			a.Get("/microsoft/callback", h.MicrosoftCallback)
		})
	})

	r.Group(func(private chi.Router) {
		private.Use(httpmiddleware.UserRateLimit(h.authLimiter))

		private.Get("/api/auth/me", h.Me)

		private.Route("/api/usuarios", func(u chi.Router) {
			u.Get("/", h.ListUsuarios)
			u.Get("/perfil", h.GetPerfil)
			u.Put("/perfil", h.UpdatePerfil)
			u.Put("/senha", h.ChangePassword)
			u.With(httpmiddleware.RequireRole(service.RoleAdmin)).Delete("/{id}", h.DeleteUsuario)
		})

		private.Route("/api/comercial", func(c chi.Router) {
			c.Route("/clientes", func(r chi.Router) {
				r.Get("/", h.ListClientes)
				r.Post("/", h.CreateCliente)
				r.Get("/{id}", h.GetCliente)
				r.Put("/{id}", h.UpdateCliente)
				r.Delete("/{id}", h.DeleteCliente)
			})
			c.Route("/oportunidades", func(r chi.Router) {
				r.Get("/", h.ListOportunidades)
				r.Post("/", h.CreateOportunidade)
				r.Get("/kanban", h.Kanban)
				r.Get("/{id}", h.GetOportunidade)
				r.Put("/{id}", h.UpdateOportunidade)
				r.Patch("/{id}", h.UpdateOportunidadeStatus)
				r.Delete("/{id}", h.DeleteOportunidade)
			})
			c.Route("/reunioes", func(r chi.Router) {
				r.Get("/", h.ListReunioes)
				r.Post("/", h.CreateReuniao)
				r.Get("/{id}", h.GetReuniao)
				r.Put("/{id}", h.UpdateReuniao)
				r.Delete("/{id}", h.DeleteReuniao)
			})
			c.Route("/notas", func(r chi.Router) {
				r.Get("/", h.ListNotas)
				r.Post("/", h.CreateNota)
				r.Get("/{id}", h.GetNota)
				r.Put("/{id}", h.UpdateNota)
				r.Delete("/{id}", h.DeleteNota)
			})
			c.Route("/responsaveis", func(r chi.Router) {
				r.Get("/", h.ListResponsaveis)
				r.Post("/", h.CreateResponsavel)
				r.Get("/{id}", h.GetResponsavel)
				r.Put("/{id}", h.UpdateResponsavel)
				r.Delete("/{id}", h.DeleteResponsavel)
			})
		})

		private.Route("/api/licitacoes", func(r chi.Router) {
			r.Get("/", h.ListLicitacoes)
			r.Post("/", h.CreateLicitacao)
			r.Get("/{id}", h.GetLicitacao)
			r.Put("/{id}", h.UpdateLicitacao)
			r.Delete("/{id}", h.DeleteLicitacao)
			r.Get("/{id}/documentos", h.ListLicitacaoDocumentos)
			r.Post("/{id}/documentos", h.UploadLicitacaoDocumento)
		})

		private.Route("/api/documentos", func(r chi.Router) {
			r.Get("/", h.ListDocumentos)
			r.Post("/", h.UploadDocumento)
			r.Get("/{id}", h.GetDocumento)
			r.Delete("/{id}", h.DeleteDocumento)
		})

		private.Route("/api/orgaos", func(r chi.Router) {
			r.Get("/", h.ListOrgaos)
			r.Post("/", h.CreateOrgao)
			r.Get("/{id}", h.GetOrgao)
			r.Put("/{id}", h.UpdateOrgao)
			r.Delete("/{id}", h.DeleteOrgao)
		})
	})

	return r
}

// Health responde status simples.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready executa as verificações de dependências configuradas.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	failures := map[string]string{}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			failures[name] = err.Error()
		}
	}
	if len(failures) > 0 {
		WriteError(w, http.StatusServiceUnavailable, "INTERNAL", "dependências indisponíveis", failures)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"ready": true})
}
