package handlers

import (
	"fmt"
	"net/http"

	"github.com/username/optionledger/backend/src/logger"
	"github.com/username/optionledger/backend/src/utils"
)

// writeJSONWithETag answers 304 when the client already holds the current representation.
func writeJSONWithETag(w http.ResponseWriter, r *http.Request, data any, what string) {
	ctxLogger := logger.FromContext(r.Context())

	currentETag, etagErr := utils.GenerateETag(data)
	if etagErr != nil {
		ctxLogger.Error("Failed to generate ETag", "resource", what, "error", etagErr)
	}

	w.Header().Set("Cache-Control", "no-cache, private")

	if etagErr == nil && currentETag != "" {
		quotedETag := fmt.Sprintf("\"%s\"", currentETag)
		w.Header().Set("ETag", quotedETag)
		if utils.ETagMatches(r.Header.Get("If-None-Match"), quotedETag) {
			ctxLogger.Debug("ETag match", "resource", what, "etag", currentETag)
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}

	utils.WriteJSON(w, http.StatusOK, data)
}
