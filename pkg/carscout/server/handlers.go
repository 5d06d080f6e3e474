package server

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/nekruzvatanshoev/carscout/pkg/carscout/assistant"
	"github.com/nekruzvatanshoev/carscout/pkg/carscout/dal"
	"github.com/nekruzvatanshoev/carscout/pkg/carscout/finance"
	"github.com/nekruzvatanshoev/carscout/pkg/carscout/logging"
	"github.com/nekruzvatanshoev/carscout/pkg/carscout/places"
)

type descriptionRequest struct {
	Description string `json:"description"`
}

type vehicleResponse struct {
	Success bool        `json:"success"`
	Vehicle dal.Vehicle `json:"vehicle"`
}

type assistantRequest struct {
	assistant.Request
	Stream bool `json:"stream"`
}

type assistantResponse struct {
	Success bool   `json:"success"`
	Reply   string `json:"reply"`
}

type nearbyResponse struct {
	Success bool               `json:"success"`
	Dealers []dal.NearbyDealer `json:"dealers"`
}

type financeResponse struct {
	Success bool          `json:"success"`
	Quote   finance.Quote `json:"quote"`
}

// Health reports liveness.
func (h *httpServer) Health(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// SearchByFilters defines a POST handler searching inventory with form filters
func (h *httpServer) SearchByFilters(w http.ResponseWriter, r *http.Request) {
	var form dal.FormFilters
	if err := h.decodeJSON(w, r, &form); err != nil {
		h.writeError(w, r, err)
		return
	}

	resp, err := h.search.ByFilters(r.Context(), form)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, resp)
}

// SearchByDescription defines a POST handler searching inventory with free text
func (h *httpServer) SearchByDescription(w http.ResponseWriter, r *http.Request) {
	var req descriptionRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	resp, err := h.search.ByDescription(r.Context(), req.Description)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, resp)
}

// GetVehicle defines a GET handler returning one vehicle by id
func (h *httpServer) GetVehicle(w http.ResponseWriter, r *http.Request) {
	v, err := h.search.Vehicle(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, vehicleResponse{Success: true, Vehicle: v})
}

// Assist defines a POST handler for the shopping assistant. With "stream"
// set the reply is written as chunked plain text.
func (h *httpServer) Assist(w http.ResponseWriter, r *http.Request) {
	var req assistantRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	if !req.Stream {
		reply, err := h.assistant.Reply(r.Context(), req.Request)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		RespondWithJSON(w, http.StatusOK, assistantResponse{Success: true, Reply: reply})
		return
	}

	rc := http.NewResponseController(w)
	started := false
	start := func() {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Cache-Control", "no-cache")
		w.WriteHeader(http.StatusOK)
		started = true
	}
	err := h.assistant.Stream(r.Context(), req.Request, func(chunk string) error {
		if !started {
			start()
		}
		if _, err := w.Write([]byte(chunk)); err != nil {
			return err
		}
		// not every writer can flush; the chunks are still delivered at the end
		_ = rc.Flush()
		return nil
	})
	switch {
	case err == nil:
		if !started {
			start()
		}
	case !started:
		h.writeError(w, r, err)
	default:
		logging.FromContext(r.Context()).WarnContext(r.Context(), "assistant stream interrupted", "error", err)
	}
}

// ListDealers defines a GET handler returning the dealer registry
func (h *httpServer) ListDealers(w http.ResponseWriter, r *http.Request) {
	dealers := h.dealers.All()
	if dealers == nil {
		dealers = []dal.Dealer{}
	}
	RespondWithJSON(w, http.StatusOK, dealers)
}

// NearbyDealers defines a GET handler finding dealerships around a point
func (h *httpServer) NearbyDealers(w http.ResponseWriter, r *http.Request) {
	vars := r.URL.Query()

	lat, err := validateCoordinate(vars, "lat")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	lng, err := validateCoordinate(vars, "lng")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	radius, err := validateRadius(vars)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	dealers, err := h.places.Nearby(r.Context(), places.Query{
		Lat:          lat,
		Lng:          lng,
		Make:         strings.TrimSpace(vars.Get("make")),
		RadiusMeters: radius,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, nearbyResponse{Success: true, Dealers: dealers})
}

// Finance defines a POST handler quoting loan payments
func (h *httpServer) Finance(w http.ResponseWriter, r *http.Request) {
	var loan finance.Loan
	if err := h.decodeJSON(w, r, &loan); err != nil {
		h.writeError(w, r, err)
		return
	}

	quote, err := finance.Calculate(loan)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, financeResponse{Success: true, Quote: quote})
}

func validateCoordinate(vars url.Values, name string) (float64, error) {
	raw := strings.TrimSpace(vars.Get(name))
	if raw == "" {
		return 0, dal.ValidationError(fmt.Sprintf("%s is required", name))
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, dal.ValidationError(fmt.Sprintf("%s must be a number: %q", name, raw))
	}
	return v, nil
}

func validateRadius(vars url.Values) (int, error) {
	raw := strings.TrimSpace(vars.Get("radius"))
	if raw == "" {
		return 0, nil
	}
	radius, err := strconv.Atoi(raw)
	if err != nil {
		return 0, dal.ValidationError(fmt.Sprintf("radius must be a whole number of meters: %q", raw))
	}
	if radius <= 0 {
		return 0, dal.ValidationError(fmt.Sprintf("radius must be a positive number: %d", radius))
	}
	return radius, nil
}
