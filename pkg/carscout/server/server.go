// Package server exposes the search, assistant and dealer APIs over HTTP.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/nekruzvatanshoev/carscout/pkg/carscout/assistant"
	"github.com/nekruzvatanshoev/carscout/pkg/carscout/dal"
	"github.com/nekruzvatanshoev/carscout/pkg/carscout/places"
)

const (
	readHeaderTimeout = 10 * time.Second
	maxBodyBytes      = 1 << 20
)

// Searcher runs vehicle searches.
type Searcher interface {
	ByFilters(ctx context.Context, form dal.FormFilters) (*dal.SearchResponse, error)
	ByDescription(ctx context.Context, description string) (*dal.DescriptionSearchResponse, error)
	Vehicle(ctx context.Context, id string) (dal.Vehicle, error)
}

// Assistant answers questions about visible vehicles.
type Assistant interface {
	Reply(ctx context.Context, req assistant.Request) (string, error)
	Stream(ctx context.Context, req assistant.Request, onChunk func(string) error) error
}

// DealerFinder looks up dealerships around a location.
type DealerFinder interface {
	Nearby(ctx context.Context, q places.Query) ([]dal.NearbyDealer, error)
}

// DealerRegistry lists the configured dealerships.
type DealerRegistry interface {
	All() []dal.Dealer
}

// Options configures the HTTP API.
type Options struct {
	Search         Searcher
	Assistant      Assistant
	Places         DealerFinder
	Dealers        DealerRegistry
	Logger         *slog.Logger
	AllowedOrigins []string
}

// NewHTTPServer returns a new HTTP server
func NewHTTPServer(addr string, opts Options) *http.Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &http.Server{
		Addr:              addr,
		Handler:           NewHandler(opts),
		ReadHeaderTimeout: readHeaderTimeout,
		ErrorLog:          slog.NewLogLogger(opts.Logger.Handler(), slog.LevelError),
	}
}

// NewHandler builds the routed, instrumented handler tree.
func NewHandler(opts Options) http.Handler {
	server := newHTTPServer(opts)

	r := mux.NewRouter()
	r.Use(middleware.RealIP, LoggerMiddleware(server.log), middleware.Recoverer)
	r.NotFoundHandler = http.HandlerFunc(server.notFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(server.methodNotAllowed)

	r.HandleFunc("/healthz", server.Health).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/search", server.SearchByFilters).Methods(http.MethodPost)
	api.HandleFunc("/search/description", server.SearchByDescription).Methods(http.MethodPost)
	api.HandleFunc("/vehicles/{id}", server.GetVehicle).Methods(http.MethodGet)
	api.HandleFunc("/assistant", server.Assist).Methods(http.MethodPost)
	api.HandleFunc("/dealers", server.ListDealers).Methods(http.MethodGet)
	api.HandleFunc("/dealers/nearby", server.NearbyDealers).Methods(http.MethodGet)
	api.HandleFunc("/finance", server.Finance).Methods(http.MethodPost)

	h := cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Trace-ID"},
		ExposedHeaders: []string{"X-Trace-ID"},
		MaxAge:         300,
	})(r)

	return otelhttp.NewHandler(h, "carscout")
}

type httpServer struct {
	log       *slog.Logger
	search    Searcher
	assistant Assistant
	places    DealerFinder
	dealers   DealerRegistry
}

func newHTTPServer(opts Options) *httpServer {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &httpServer{
		log:       log,
		search:    opts.Search,
		assistant: opts.Assistant,
		places:    opts.Places,
		dealers:   opts.Dealers,
	}
}
