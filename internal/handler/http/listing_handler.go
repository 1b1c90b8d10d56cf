package http

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"SubletHubPlatform/internal/domain"
	"SubletHubPlatform/internal/middleware"
	"SubletHubPlatform/internal/service"
	"SubletHubPlatform/pkg/errors"

	"github.com/gorilla/mux"
)

// SearchListings ищет объявления по датам, цене и локации
func (h *Handler) SearchListings(w http.ResponseWriter, r *http.Request) {
	constraint, err := h.parseConstraint(r.URL.Query())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	page, err := h.services.Listings.Search(r.Context(), constraint)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) parseConstraint(q url.Values) (domain.SearchConstraint, error) {
	c := domain.SearchConstraint{
		Location: strings.TrimSpace(q.Get("location")),
		Page:     1,
		PageSize: h.options.DefaultPageSize,
	}

	var err error
	if c.StartDate, err = parseDate(q, "start_date", false); err != nil {
		return c, err
	}
	if c.EndDate, err = parseDate(q, "end_date", true); err != nil {
		return c, err
	}
	if c.MinPrice, err = parseFloat(q, "min_price"); err != nil {
		return c, err
	}
	if c.MaxPrice, err = parseFloat(q, "max_price"); err != nil {
		return c, err
	}
	if c.Page, err = parseInt(q, "page", c.Page); err != nil {
		return c, err
	}
	if c.PageSize, err = parseInt(q, "page_size", c.PageSize); err != nil {
		return c, err
	}
	return c, nil
}

const dateLayout = "2006-01-02"

// parseDate принимает RFC3339 или дату вида 2006-01-02 в UTC.
// Для дня без времени при endOfDay возвращается последний момент этого дня.
func parseDate(q url.Values, key string, endOfDay bool) (*time.Time, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		t = t.UTC()
		return &t, nil
	}
	if t, err := time.Parse(dateLayout, raw); err == nil {
		if endOfDay {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		return &t, nil
	}
	return nil, errors.New(errors.ErrValidation, "invalid input").WithDetails(key + " must be a date")
}

func parseFloat(q url.Values, key string) (*float64, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, errors.New(errors.ErrValidation, "invalid input").WithDetails(key + " must be a number")
	}
	return &v, nil
}

func parseInt(q url.Values, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New(errors.ErrValidation, "invalid input").WithDetails(key + " must be an integer")
	}
	return v, nil
}

// GetListing возвращает объявление по идентификатору
func (h *Handler) GetListing(w http.ResponseWriter, r *http.Request) {
	listing, err := h.services.Listings.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listingResponse{Listing: listing, DurationDays: listing.DurationDays()})
}

// listingResponse объявление с вычисленной длительностью
type listingResponse struct {
	*domain.Listing
	DurationDays int `json:"duration_days"`
}

// CreateListing публикует объявление от имени текущего пользователя
func (h *Handler) CreateListing(w http.ResponseWriter, r *http.Request) {
	var req service.CreateListingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	listing, err := h.services.Listings.Create(r.Context(), identityFrom(r), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, listingResponse{Listing: listing, DurationDays: listing.DurationDays()})
}

// UpdateListing частично обновляет объявление владельца
func (h *Handler) UpdateListing(w http.ResponseWriter, r *http.Request) {
	current, ok := middleware.ListingFrom(r.Context())
	if !ok {
		h.writeError(w, r, errors.New(errors.ErrInternal, "listing missing from request context"))
		return
	}

	var patch domain.ListingPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		h.writeError(w, r, err)
		return
	}

	updated, err := h.services.Listings.Update(r.Context(), current, patch)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listingResponse{Listing: updated, DurationDays: updated.DurationDays()})
}

// DeleteListing удаляет объявление владельца
func (h *Handler) DeleteListing(w http.ResponseWriter, r *http.Request) {
	current, ok := middleware.ListingFrom(r.Context())
	if !ok {
		h.writeError(w, r, errors.New(errors.ErrInternal, "listing missing from request context"))
		return
	}

	if err := h.services.Listings.Delete(r.Context(), current); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListingTipTotal сумма завершенных чаевых по объявлению
func (h *Handler) ListingTipTotal(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	total, err := h.services.Tips.TotalForListing(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"listing_id": id, "total": total})
}
