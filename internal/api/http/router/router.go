package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/dtroode/alumni-server/internal/api/http/handler"
	"github.com/dtroode/alumni-server/internal/api/http/middleware"
	"github.com/dtroode/alumni-server/internal/api/http/response"
	"github.com/dtroode/alumni-server/internal/encryption"
	"github.com/dtroode/alumni-server/internal/logger"
	"github.com/dtroode/alumni-server/internal/model"
	"github.com/dtroode/alumni-server/internal/password"
	"github.com/dtroode/alumni-server/internal/ratelimit"
	"github.com/dtroode/alumni-server/internal/service"
)

const (
	defaultTimeout = 30 * time.Second
	stateBytes     = 16
)

// Options carries the boundary policies of the router. Nil limiters and a nil
// decrypter disable the corresponding middleware.
type Options struct {
	FrontendURL    string
	Cookies        response.CookiePolicy
	RequestTimeout time.Duration
	GeneralLimiter ratelimit.Limiter
	AuthLimiter    ratelimit.Limiter
	Decrypter      middleware.FieldDecrypter
	NewState       func() (string, error)
}

// Router wires the HTTP handlers and middleware.
type Router struct {
	authService    *service.Auth
	userService    *service.Users
	tokenService   *service.TokenService
	authURLs       handler.AuthURLBuilder
	db             handler.Pinger
	contextManager model.ContextManager
	opts           Options
	logger         *logger.Logger
}

// New creates new HTTP Router instance.
func New(
	authService *service.Auth,
	userService *service.Users,
	tokenService *service.TokenService,
	authURLs handler.AuthURLBuilder,
	db handler.Pinger,
	contextManager model.ContextManager,
	opts Options,
	logger *logger.Logger,
) *Router {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultTimeout
	}
	if opts.NewState == nil {
		opts.NewState = func() (string, error) { return password.GenerateToken(stateBytes) }
	}
	return &Router{
		authService:    authService,
		userService:    userService,
		tokenService:   tokenService,
		authURLs:       authURLs,
		db:             db,
		contextManager: contextManager,
		opts:           opts,
		logger:         logger,
	}
}

func passthrough(next http.Handler) http.Handler { return next }

func (r *Router) limit(l ratelimit.Limiter, scope string) func(http.Handler) http.Handler {
	if l == nil {
		return passthrough
	}
	return middleware.NewRateLimit(l, scope, r.logger).Handle
}

// Register builds the HTTP handler with every route and middleware.
func (r *Router) Register() http.Handler {
	logging := middleware.NewLogging(r.logger)
	authenticate := middleware.NewAuthenticate(r.tokenService, r.contextManager, r.logger)

	decryptBody, decryptParams := passthrough, passthrough
	if r.opts.Decrypter != nil {
		decrypt := middleware.NewDecrypt(r.opts.Decrypter, encryption.SensitiveFields)
		decryptBody, decryptParams = decrypt.Handle, decrypt.Params
	}

	mux := chi.NewRouter()
	mux.Use(
		chimw.RequestID,
		chimw.RealIP,
		logging.Handle,
		chimw.Recoverer,
		middleware.CORS(r.opts.FrontendURL),
		chimw.Timeout(r.opts.RequestTimeout),
		r.limit(r.opts.GeneralLimiter, "general"),
		decryptBody,
	)
	mux.NotFound(func(w http.ResponseWriter, req *http.Request) {
		response.Fail(w, http.StatusNotFound, "route "+req.URL.Path+" not found", nil)
	})
	mux.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		response.Fail(w, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed), nil)
	})

	mux.Get("/healthz", handler.Health(r.db, r.logger))
	r.registerAuthRoutes(mux, authenticate.Handle, decryptParams)
	r.registerUserRoutes(mux, authenticate.Handle)

	return mux
}

func (r *Router) registerAuthRoutes(mux chi.Router, authenticate, decryptParams func(http.Handler) http.Handler) {
	auth := handler.NewAuth(r.authService, r.userService, r.contextManager, r.opts.Cookies, r.logger)
	google := handler.NewGoogle(auth, r.authURLs, r.opts.NewState, r.logger)

	mux.Route("/auth", func(ar chi.Router) {
		credential := ar.With(r.limit(r.opts.AuthLimiter, "auth"))

		credential.Post("/register", auth.Register)
		credential.Post("/login", auth.Login)
		credential.Post("/resend-verification", auth.ResendVerification)
		credential.Post("/forgot-password", auth.ForgotPassword)
		credential.Post("/reset-password", auth.ResetPassword)
		ar.Post("/refresh", auth.Refresh)
		ar.Post("/logout", auth.Logout)
		ar.With(decryptParams).Get("/verify-email/{token}", auth.VerifyEmail)
		ar.With(authenticate).Post("/change-password", auth.ChangePassword)
		ar.With(authenticate).Get("/me", auth.Me)

		ar.Get("/google", google.AuthURL)
		credential.Post("/google", google.Login)
		credential.Post("/google/register", google.Register)
	})
}

func (r *Router) registerUserRoutes(mux chi.Router, authenticate func(http.Handler) http.Handler) {
	users := handler.NewUsers(r.userService, r.authService, r.contextManager, r.logger)

	mux.Route("/users", func(ur chi.Router) {
		ur.Use(authenticate)
		ur.Get("/me/profile", users.GetProfile)
		ur.Patch("/me/profile", users.UpdateProfile)
		ur.Get("/{id}", users.Get)

		ur.Group(func(admin chi.Router) {
			admin.Use(middleware.RequireAdmin(r.contextManager))
			admin.Get("/admin/list", users.List)
			admin.Get("/admin/deleted", users.ListDeleted)
			admin.Post("/admin/create", users.Create)
			admin.Patch("/{id}/role", users.UpdateRole)
			admin.Put("/{id}/password", users.SetPassword)
			admin.Delete("/{id}", users.Delete)
			admin.Post("/{id}/restore", users.Restore)
		})
	})
}
