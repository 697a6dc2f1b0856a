// backend/src/handlers/upload_handler.go
package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/username/optionledger/backend/src/logger"
	"github.com/username/optionledger/backend/src/models"
	"github.com/username/optionledger/backend/src/parsers"
	"github.com/username/optionledger/backend/src/security/validation"
	"github.com/username/optionledger/backend/src/services"
	"github.com/username/optionledger/backend/src/utils"
)

type UploadHandler struct {
	ledgerService      services.LedgerService
	maxUploadSizeBytes int64
}

func NewUploadHandler(service services.LedgerService, maxUploadSizeBytes int64) *UploadHandler {
	return &UploadHandler{
		ledgerService:      service,
		maxUploadSizeBytes: maxUploadSizeBytes,
	}
}

type rejectedUploadResponse struct {
	Error    string                `json:"error"`
	Rejected []models.RowRejection `json:"rejected"`
}

// HandleUpload imports a broker CSV, replacing everything previously stored for that broker.
func (h *UploadHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	source, err := models.ParseSource(chi.URLParam(r, "source"))
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSizeBytes+1024*1024)
	if err := r.ParseMultipartForm(h.maxUploadSizeBytes); err != nil {
		ctxLogger.Warn("Failed to parse multipart form or request too large", "source", source, "error", err, "limit", h.maxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("Failed to process upload or file too large (max %d MB)", h.maxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		ctxLogger.Warn("Failed to retrieve file from request", "source", source, "error", err)
		utils.SendJSONError(w, "Failed to retrieve file from request. Ensure 'file' field is used.", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if fileHeader.Size > h.maxUploadSizeBytes {
		ctxLogger.Warn("Uploaded file too large", "fileSize", fileHeader.Size, "limit", h.maxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("File too large, max %d MB", h.maxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	clientContentType := fileHeader.Header.Get("Content-Type")
	if err := validation.ValidateClientContentType(clientContentType); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	detectedContentType, err := validation.ValidateFileContentByMagicBytes(file)
	if err != nil {
		ctxLogger.Warn("Server-side file content validation failed", "filename", fileHeader.Filename, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	ctxLogger.Info("Processing upload", "source", source, "filename", fileHeader.Filename, "size", fileHeader.Size, "detectedType", detectedContentType)

	result, err := h.ledgerService.ImportSource(r.Context(), source, file, fileHeader.Filename, fileHeader.Size)
	if err != nil {
		var rejected *services.RejectedImportError
		switch {
		case errors.As(err, &rejected):
			utils.WriteJSON(w, http.StatusUnprocessableEntity, rejectedUploadResponse{
				Error:    "No valid rows found in file",
				Rejected: rejected.Rejected,
			})
		case errors.Is(err, services.ErrParsingFailed), errors.Is(err, parsers.ErrUnknownSource):
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		default:
			ctxLogger.Error("Import failed", "source", source, "error", err)
			utils.SendJSONError(w, "Failed to import file", http.StatusInternalServerError)
		}
		return
	}

	utils.WriteJSON(w, http.StatusOK, result)
}
