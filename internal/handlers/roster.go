package handlers

import (
	"encoding/json"
	"net/http"
	"regexp"

	"github.com/crucial707/coursevault/internal/repo"
)

// rollSuffixRe matches the student-entered part of a roll number. The
// fixed cohort prefix is configured server-side.
var rollSuffixRe = regexp.MustCompile(`^\d{3}$`)

// ==========================
// RosterHandler
// ==========================
type RosterHandler struct {
	RosterRepo *repo.RosterRepo
	UserRepo   *repo.UserRepo
	RollPrefix string
}

// Lookup resolves a 3-digit roll suffix to the roster name and email, so
// the registration form can prefill. Already-registered emails are
// reported as a conflict rather than leaked back out.
func (h *RosterHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Suffix string `json:"suffix"`
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if !rollSuffixRe.MatchString(input.Suffix) {
		JSONError(w, "suffix must be exactly 3 digits", http.StatusBadRequest)
		return
	}

	entry, err := h.RosterRepo.Lookup(r.Context(), h.RollPrefix+input.Suffix)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if entry == nil {
		JSONError(w, "roll number not on roster", http.StatusNotFound)
		return
	}

	registered, err := h.UserRepo.EmailRegistered(r.Context(), entry.Email)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if registered {
		JSONError(w, "already registered", http.StatusConflict)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"name":  entry.Name,
		"email": entry.Email,
	})
}
