package http

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"SubletHubPlatform/internal/domain"
	"SubletHubPlatform/internal/middleware"
	"SubletHubPlatform/internal/service"
	"SubletHubPlatform/pkg/errors"
	"SubletHubPlatform/pkg/logger"
	"SubletHubPlatform/pkg/ratelimit"

	"github.com/gorilla/mux"
)

const maxBodyBytes = 1 << 20

// Services набор сервисов, обслуживаемых HTTP слоем
type Services struct {
	Auth     service.AuthService
	Access   service.AccessService
	Listings service.ListingService
	Tips     service.TipService
	Admin    service.AdminService
}

// Options параметры HTTP слоя
type Options struct {
	DefaultPageSize int
	// Лимит запросов к auth эндпоинтам с одного IP в минуту; 0 отключает ограничение
	AuthRequestsPerMinute int
}

// Handler обрабатывает HTTP запросы API v1
type Handler struct {
	services Services
	limiter  ratelimit.RateLimiter
	options  Options
	logger   logger.Logger

	authenticated *middleware.Pipeline
}

// NewHandler создает HTTP обработчик; limiter может быть nil
func NewHandler(services Services, limiter ratelimit.RateLimiter, options Options, log logger.Logger) *Handler {
	if options.DefaultPageSize <= 0 {
		options.DefaultPageSize = service.DefaultPageSize
	}
	log = log.With(logger.String("component", "http_handler"))

	return &Handler{
		services:      services,
		limiter:       limiter,
		options:       options,
		logger:        log,
		authenticated: middleware.Authenticated(services.Access, log),
	}
}

// Register регистрирует маршруты API на роутере
func (h *Handler) Register(router *mux.Router) {
	api := router.PathPrefix("/api/v1").Subrouter()

	authRoutes := api.PathPrefix("/auth").Subrouter()
	authRoutes.Handle("/register", h.rateLimited(http.HandlerFunc(h.RegisterAccount))).Methods(http.MethodPost)
	authRoutes.Handle("/login", h.rateLimited(http.HandlerFunc(h.Login))).Methods(http.MethodPost)
	authRoutes.Handle("/me", h.authenticated.WrapFunc(h.Me)).Methods(http.MethodGet)

	owner := h.authenticated.Then(middleware.RequireListingOwner(h.services.Access, listingIDVar))
	admin := h.authenticated.Then(middleware.RequireRoles(h.services.Access, domain.RoleAdmin))

	api.HandleFunc("/listings", h.SearchListings).Methods(http.MethodGet)
	api.Handle("/listings", h.authenticated.WrapFunc(h.CreateListing)).Methods(http.MethodPost)
	api.HandleFunc("/listings/{id}", h.GetListing).Methods(http.MethodGet)
	api.Handle("/listings/{id}", owner.WrapFunc(h.UpdateListing)).Methods(http.MethodPut)
	api.Handle("/listings/{id}", owner.WrapFunc(h.DeleteListing)).Methods(http.MethodDelete)
	api.HandleFunc("/listings/{id}/tips/total", h.ListingTipTotal).Methods(http.MethodGet)

	api.Handle("/tips", h.authenticated.WrapFunc(h.CreateTip)).Methods(http.MethodPost)
	api.Handle("/tips/{id}", h.authenticated.WrapFunc(h.GetTip)).Methods(http.MethodGet)
	api.Handle("/users/me/tips/total", h.authenticated.WrapFunc(h.UserTipTotal)).Methods(http.MethodGet)

	api.Handle("/admin/stats", admin.WrapFunc(h.AdminStats)).Methods(http.MethodGet)
	api.Handle("/admin/tips/{id}/complete", admin.WrapFunc(h.CompleteTip)).Methods(http.MethodPost)
	api.Handle("/admin/tips/{id}/fail", admin.WrapFunc(h.FailTip)).Methods(http.MethodPost)
}

func (h *Handler) rateLimited(next http.Handler) http.Handler {
	if h.limiter == nil || h.options.AuthRequestsPerMinute <= 0 {
		return next
	}
	return middleware.RateLimitMiddleware(h.limiter, "auth", h.options.AuthRequestsPerMinute, time.Minute, h.logger)(next)
}

func listingIDVar(r *http.Request) string {
	return mux.Vars(r)["id"]
}

func identityFrom(r *http.Request) domain.Identity {
	identity, _ := middleware.IdentityFrom(r.Context())
	return identity
}

// decodeJSON разбирает тело запроса; пустое или некорректное тело дает VALIDATION_ERROR
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if err == io.EOF {
			return errors.New(errors.ErrValidation, "invalid input").WithDetails("request body is required")
		}
		return errors.Wrap(err, errors.ErrValidation, "invalid input").WithDetails("malformed JSON body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeError логирует серверные ошибки и отдает ответ в едином формате
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch errors.Code(err) {
	case errors.ErrInternal, errors.ErrUnavailable:
		h.logger.Error("Request failed",
			logger.CtxField(r.Context()),
			logger.String("path", r.URL.Path),
			logger.Error(err),
		)
	}
	errors.WriteJSON(w, err)
}
