package name

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"presenced/internal/model/identity"
	"presenced/internal/service/presence"
	"presenced/pkg/utils"
)

// Handler serves the name-check and registration endpoints.
type Handler struct {
	store identity.Store
	coord *presence.Service
}

// New creates the name handler.
func New(store identity.Store, coord *presence.Service) *Handler {
	return &Handler{
		store: store,
		coord: coord,
	}
}

// RegisterRoutes mounts the name routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/check-name", h.handleCheckName)
	r.Post("/register", h.handleRegister)
}

// handleCheckName reports whether a display name is already registered. The
// check is announced to every connected phone as an observable side effect.
func (h *Handler) handleCheckName(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		utils.RespondMessage(w, http.StatusBadRequest, "Missing name parameter")
		return
	}

	h.coord.Broadcast("hello from server, you just checked " + name)

	if h.store.NameExists(name) {
		utils.RespondMessage(w, http.StatusBadRequest, "Name already taken")
		return
	}
	utils.RespondMessage(w, http.StatusOK, "Name available")
}

// handleRegister issues a fresh identity and bearer token for a name.
func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name string `json:"name"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Name == "" {
		utils.RespondMessage(w, http.StatusBadRequest, "name is required")
		return
	}

	phone, token, err := h.store.Register(payload.Name)
	if err != nil {
		if errors.Is(err, identity.ErrNameTaken) {
			utils.RespondMessage(w, http.StatusConflict, "Name already taken")
			return
		}
		utils.RespondMessage(w, http.StatusInternalServerError, "registration failed")
		return
	}

	utils.RespondJSON(w, http.StatusCreated, map[string]string{
		"id":    phone.ID,
		"name":  phone.Name,
		"token": token,
	})
}
