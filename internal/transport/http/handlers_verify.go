package httptransport

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/mahavirb22/EventLens/internal/geofence"
	"github.com/mahavirb22/EventLens/internal/platform/middleware"
	"github.com/mahavirb22/EventLens/internal/transport/httputil"
	"github.com/mahavirb22/EventLens/internal/verification"
	dErrors "github.com/mahavirb22/EventLens/pkg/domain-errors"
)

// multipartOverhead leaves room for the non-file form fields when capping the
// request body at the image size limit.
const multipartOverhead = 64 << 10

// handleVerifyAttendance accepts a multipart claim: the photo plus the event,
// wallet, and optional coordinates.
func (h *Handler) handleVerifyAttendance(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+multipartOverhead)
	if err := r.ParseMultipartForm(h.maxUpload + multipartOverhead); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			httputil.WriteError(w, dErrors.New(dErrors.CodePayloadTooBig, "image exceeds the upload size limit"))
			return
		}
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "expected multipart form data"))
		return
	}

	eventID := r.FormValue("event_id")
	subject := r.FormValue("wallet_address")
	if eventID == "" || subject == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "event_id and wallet_address are required"))
		return
	}

	lat, err := parseOptionalFloat(r.FormValue("latitude"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	lon, err := parseOptionalFloat(r.FormValue("longitude"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var coords *geofence.Coordinates
	if lat != nil && lon != nil {
		coords = &geofence.Coordinates{Lat: *lat, Lon: *lon}
	}

	file, _, err := r.FormFile("photo")
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "photo file is required"))
		return
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "failed to read photo"))
		return
	}

	res, err := h.verifier.Verify(r.Context(), verification.VerifyRequest{
		EventID:     eventID,
		Subject:     subject,
		DisplayName: r.FormValue("display_name"),
		Image:       image,
		Coords:      coords,
		ClientKey:   middleware.GetClientIP(r.Context()),
		RequestID:   middleware.GetRequestID(r.Context()),
		Device:      middleware.GetDevice(r.Context()).String(),
	})
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeRateLimited) {
			w.Header().Set("Retry-After", "60")
		}
		httputil.WriteError(w, err)
		return
	}

	w.Header().Set("X-RateLimit-Limit", fmt.Sprint(res.RateLimit.Limit))
	w.Header().Set("X-RateLimit-Remaining", fmt.Sprint(res.RateLimit.Remaining))
	httputil.WriteJSON(w, http.StatusOK, res)
}

type mintRequest struct {
	EventID       string `json:"event_id"`
	WalletAddress string `json:"wallet_address"`
	DisplayName   string `json:"display_name"`
	Token         string `json:"token"`
}

// handleMintBadge redeems a capability token for the badge issuance.
func (h *Handler) handleMintBadge(w http.ResponseWriter, r *http.Request) {
	var req mintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	if req.EventID == "" || req.WalletAddress == "" || req.Token == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "event_id, wallet_address and token are required"))
		return
	}

	res, err := h.verifier.Mint(r.Context(), verification.MintRequest{
		EventID:     req.EventID,
		Subject:     req.WalletAddress,
		DisplayName: req.DisplayName,
		Token:       req.Token,
		RequestID:   middleware.GetRequestID(r.Context()),
		Device:      middleware.GetDevice(r.Context()).String(),
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}
