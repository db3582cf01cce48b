package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tonermart/backend/internal/ledger"
	"github.com/tonermart/backend/internal/models"
	"github.com/tonermart/backend/internal/services"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps ledger and gate errors onto the HTTP surface. The
// permission envelope keeps the denied resource in the message so clients
// can tell which table-equivalent was refused.
func writeError(w http.ResponseWriter, err error) {
	var pd *models.PermissionDeniedError
	var nf *models.NotFoundError
	switch {
	case errors.As(err, &pd):
		services.SendErrorResponse(w, pd.Error(), http.StatusForbidden, nil)
	case errors.As(err, &nf):
		services.SendErrorResponse(w, nf.Error(), http.StatusNotFound, nil)
	case errors.Is(err, models.ErrNothingToCancel):
		services.SendErrorResponse(w, err.Error(), http.StatusConflict, nil)
	case errors.Is(err, ledger.ErrQuantityIncorrect):
		services.SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
	default:
		services.SendErrorResponse(w, "An internal error occurred", http.StatusInternalServerError, nil)
	}
}
