package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Luxury-Leads-AI/Luxury-Leads-AI/internal/admin"
	"github.com/Luxury-Leads-AI/Luxury-Leads-AI/internal/agency"
	"github.com/Luxury-Leads-AI/Luxury-Leads-AI/internal/conversation"
	"github.com/Luxury-Leads-AI/Luxury-Leads-AI/internal/dashboard"
	httpmiddleware "github.com/Luxury-Leads-AI/Luxury-Leads-AI/internal/http/middleware"
	"github.com/Luxury-Leads-AI/Luxury-Leads-AI/internal/leads"
	"github.com/Luxury-Leads-AI/Luxury-Leads-AI/internal/webchat"
	"github.com/Luxury-Leads-AI/Luxury-Leads-AI/pkg/logging"
)

const agencyParam = "agencyID"

// Config holds router configuration
type Config struct {
	Logger              *logging.Logger
	AgencyHandler       *agency.Handler
	LeadsHandler        *leads.Handler
	ConversationHandler *conversation.Handler
	WebchatHandler      *webchat.Handler
	DashboardHandler    *dashboard.Handler
	AdminHandler        *admin.Handler
	MetricsHandler      http.Handler
	CORSAllowedOrigins  []string
	OwnerJWTSecret      string
	AdminJWTSecret      string

	// Per-client limits on the public chat routes; zero disables limiting.
	RateLimitRPS   float64
	RateLimitBurst int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	if cfg.AgencyHandler == nil || cfg.ConversationHandler == nil {
		panic("router: agency and conversation handlers required")
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	limited := func(next http.Handler) http.Handler { return next }
	if cfg.RateLimitRPS > 0 {
		limited = httpmiddleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
	owner := httpmiddleware.OwnerJWT(cfg.OwnerJWTSecret, agencyParam)

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/health", health)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}

		public.Post("/agencies", cfg.AgencyHandler.Register)
		public.Post("/create-agency", cfg.AgencyHandler.Register)
		public.Get("/agencies/{agencyID}", cfg.AgencyHandler.Info)
		public.Get("/agency/{agencyID}", cfg.AgencyHandler.Info)
		public.Post("/auth/login", cfg.AgencyHandler.Login)

		public.With(limited).Post("/chat", cfg.ConversationHandler.Chat)
		if cfg.WebchatHandler != nil {
			public.Get("/widget.js", cfg.WebchatHandler.HandleWidgetJS)
			public.With(limited).Get("/ws", cfg.WebchatHandler.HandleWebSocket)
		}
	})

	// Owner routes: the token subject must match {agencyID}.
	r.Group(func(o chi.Router) {
		o.Use(middleware.Compress(5, "application/json", "text/csv"))
		o.With(owner).Delete("/agencies/{agencyID}", cfg.AgencyHandler.Delete)
		if cfg.LeadsHandler != nil {
			o.With(owner).Get("/agencies/{agencyID}/leads", cfg.LeadsHandler.ListLeads)
			o.With(owner).Get("/leads/{agencyID}", cfg.LeadsHandler.ListLeads)
			o.With(owner).Get("/agencies/{agencyID}/leads/export", cfg.LeadsHandler.ExportLeads)
		}
		if cfg.DashboardHandler != nil {
			o.With(owner).Get("/agencies/{agencyID}/dashboard", cfg.DashboardHandler.GetDashboard)
		}
	})

	if cfg.AdminHandler != nil {
		r.Route("/admin", func(a chi.Router) {
			a.Use(httpmiddleware.AdminJWT(cfg.AdminJWTSecret))
			a.Get("/agencies", cfg.AdminHandler.ListAgencies)
			a.Post("/agencies/status", cfg.AdminHandler.UpdateStatus)
		})
	}

	return r
}

func health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
