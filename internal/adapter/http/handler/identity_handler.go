package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/digipay/internal/adapter/http/dto"
	"github.com/iho/digipay/internal/domain"
)

// IdentityHandler handles identity administration requests.
type IdentityHandler struct {
	identities IdentityService
}

// NewIdentityHandler creates a new IdentityHandler.
func NewIdentityHandler(identities IdentityService) *IdentityHandler {
	return &IdentityHandler{identities: identities}
}

// Create creates a user or agent together with its wallet.
func (h *IdentityHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateIdentityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	reg, err := h.identities.CreateIdentity(r.Context(), caller(r), req.ToUseCaseInput())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.RegistrationFromDomain(reg))
}

// List lists identities.
func (h *IdentityHandler) List(w http.ResponseWriter, r *http.Request) {
	identities, err := h.identities.ListIdentities(r.Context(), caller(r),
		parseIntQuery(r, "limit", 0), parseIntQuery(r, "offset", 0))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.IdentitiesFromDomain(identities))
}

// Get retrieves an identity by ID.
func (h *IdentityHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, err := h.identities.GetIdentity(r.Context(), caller(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.IdentityFromDomain(identity))
}

// SetBlocked sets or toggles an identity's block flag.
func (h *IdentityHandler) SetBlocked(w http.ResponseWriter, r *http.Request) {
	var req dto.BlockRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	identity, err := h.identities.SetIdentityBlocked(r.Context(), caller(r), chi.URLParam(r, "id"), req.Blocked)
	h.respond(w, r, identity, err)
}

// ToggleApproval approves or suspends an agent.
func (h *IdentityHandler) ToggleApproval(w http.ResponseWriter, r *http.Request) {
	identity, err := h.identities.ToggleAgentApproval(r.Context(), caller(r), chi.URLParam(r, "id"))
	h.respond(w, r, identity, err)
}

// ToggleRole switches an identity between user and agent.
func (h *IdentityHandler) ToggleRole(w http.ResponseWriter, r *http.Request) {
	identity, err := h.identities.ToggleRole(r.Context(), caller(r), chi.URLParam(r, "id"))
	h.respond(w, r, identity, err)
}

func (h *IdentityHandler) respond(w http.ResponseWriter, r *http.Request, identity *domain.Identity, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.IdentityFromDomain(identity))
}
