package api

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"github.com/susu3304/tweetguessr/internal/config"
	"github.com/susu3304/tweetguessr/internal/game"
	"github.com/susu3304/tweetguessr/internal/imagestore"
	"github.com/susu3304/tweetguessr/internal/maps"
	"github.com/ulule/limiter/v3"
	"golang.org/x/oauth2"
)

const discordAPIBase = "https://discord.com/api"

type API struct {
	router      *mux.Router
	game        *game.Service
	maps        *maps.Registry
	images      imagestore.Store
	config      *config.Config
	oauthConfig *oauth2.Config
	jwtSecret   []byte
	log         logrus.FieldLogger
	validate    *validator.Validate
	guessLimit  *limiter.Limiter
	hub         *hub
	discordAPI  string
	httpClient  *http.Client
}

func New(cfg *config.Config, svc *game.Service, registry *maps.Registry, images imagestore.Store, log logrus.FieldLogger) (*API, error) {
	rate, err := limiter.NewRateFromFormatted(cfg.GuessRateLimit)
	if err != nil {
		return nil, fmt.Errorf("invalid guess rate limit: %w", err)
	}

	api := &API{
		router:     mux.NewRouter(),
		game:       svc,
		maps:       registry,
		images:     images,
		config:     cfg,
		jwtSecret:  []byte(cfg.JWTSecret),
		log:        log,
		validate:   newValidator(),
		guessLimit: newLimiter(rate),
		hub:        newHub(svc, log),
		discordAPI: discordAPIBase,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.DiscordClientID,
			ClientSecret: cfg.DiscordClientSecret,
			RedirectURL:  cfg.DiscordRedirectURI,
			Scopes:       []string{"identify"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  "https://discord.com/api/oauth2/authorize",
				TokenURL: "https://discord.com/api/oauth2/token",
			},
		},
	}

	api.setupRoutes()
	return api, nil
}

func (a *API) setupRoutes() {
	a.router.Use(a.logMiddleware)

	// Auth endpoints
	a.router.HandleFunc("/api/auth/login", a.handleLogin).Methods("GET")
	a.router.HandleFunc("/api/auth/callback", a.handleCallback).Methods("GET")
	a.router.HandleFunc("/api/auth/guest", a.handleGuest).Methods("POST")
	a.router.HandleFunc("/api/auth/logout", a.handleLogout).Methods("POST")

	// Public endpoints
	a.router.HandleFunc("/healthz", a.handleHealth).Methods("GET")
	a.router.HandleFunc("/api/maps", a.handleListMaps).Methods("GET")
	a.router.HandleFunc("/api/maps/{map_id}", a.handleGetMap).Methods("GET")
	a.router.HandleFunc("/api/maps/{map_id}/unproject", a.handleUnproject).Methods("POST")
	a.router.HandleFunc("/api/maps/{map_id}/project", a.handleProject).Methods("POST")
	a.router.HandleFunc("/img/{key:.+}", a.handleImage).Methods("GET")
	a.router.HandleFunc("/ws/rounds/{id}", a.handleRoundSocket).Methods("GET")

	// Web interface
	a.router.HandleFunc("/", a.handleWebInterface).Methods("GET")
	a.router.HandleFunc("/rounds/{id}", a.handleWebInterface).Methods("GET")

	// Protected endpoints
	protected := a.router.PathPrefix("/api").Subrouter()
	protected.Use(a.authMiddleware)

	protected.HandleFunc("/rounds", a.handleCreateRound).Methods("POST")
	protected.HandleFunc("/rounds/{id}", a.handleGetRound).Methods("GET")
	protected.HandleFunc("/rounds/{id}/clues", a.handleRevealClue).Methods("POST")
	protected.Handle("/rounds/{id}/guesses", a.rateLimit(a.guessLimit, http.HandlerFunc(a.handleGuess))).Methods("POST")
	protected.HandleFunc("/rounds/{id}/reveal", a.handleReveal).Methods("POST")
}

// Handler returns the router wrapped with CORS.
func (a *API) Handler() http.Handler {
	// Note: When AllowedOrigins is "*", AllowCredentials must be false
	corsOptions := cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
	}
	return cors.New(corsOptions).Handler(a.router)
}

// Start serves until ctx is cancelled.
func (a *API) Start(ctx context.Context) error {
	a.hub.start(ctx)

	srv := &http.Server{
		Addr:              a.config.WebBind,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	a.log.Infof("API server listening on http://%s", a.config.WebBind)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

// Hijack is needed by the websocket upgrade.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijacking not supported")
	}
	return h.Hijack()
}

func (a *API) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/healthz" {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		a.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start).String(),
		}).Debug("HTTP request")
	})
}
