package handlers

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/username/optionledger/backend/src/logger"
	"github.com/username/optionledger/backend/src/models"
	"github.com/username/optionledger/backend/src/processors"
	"github.com/username/optionledger/backend/src/security/validation"
	"github.com/username/optionledger/backend/src/services"
	"github.com/username/optionledger/backend/src/utils"
)

const maxJSONBodyBytes = 1 << 20

type RiskHandler struct {
	riskService services.RiskService
}

func NewRiskHandler(service services.RiskService) *RiskHandler {
	return &RiskHandler{riskService: service}
}

func (h *RiskHandler) HandleCalculateRisk(w http.ResponseWriter, r *http.Request) {
	var req models.RiskRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.riskService.Calculate(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, validation.ErrValidationFailed),
			errors.Is(err, processors.ErrUnknownStrategy),
			errors.Is(err, processors.ErrInvalidLegs):
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		default:
			logger.FromContext(r.Context()).Error("Error calculating risk", "error", err)
			utils.SendJSONError(w, "Error calculating risk", http.StatusInternalServerError)
		}
		return
	}
	utils.WriteJSON(w, http.StatusOK, result)
}
