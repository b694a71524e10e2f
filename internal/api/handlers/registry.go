package handlers

import (
	"net/http"

	"github.com/Harshitk-cp/begrippen/internal/registry"
)

type RegistryHandler struct {
	holder *registry.Holder
}

func NewRegistryHandler(holder *registry.Holder) *RegistryHandler {
	return &RegistryHandler{holder: holder}
}

func (h *RegistryHandler) Get(w http.ResponseWriter, r *http.Request) {
	snap := h.holder.Current()
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, "no rule snapshot loaded")
		return
	}
	writeJSON(w, http.StatusOK, snap.Summary())
}

// Reload re-reads the rule file. A rejected file leaves the active snapshot
// in place and is reported as 422.
func (h *RegistryHandler) Reload(w http.ResponseWriter, r *http.Request) {
	snap, err := h.holder.Reload()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, snap.Summary())
}
