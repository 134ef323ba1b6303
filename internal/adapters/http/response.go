package http

import (
	"encoding/json"
	"net/http"
)

type apiError struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

var internalErrorBody = []byte(`{"status":"error","code":"INTERNAL_ERROR","message":"internal server error"}`)

// writeJSON encodes before writing the header so an unencodable payload becomes a 500.
func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		httpLogger().Error("encode response failed",
			"operation", "write_json",
			"outcome", "failure",
			"status_code", statusCode,
			"error", err.Error(),
		)
		statusCode = http.StatusInternalServerError
		body = internalErrorBody
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if _, err := w.Write(append(body, '\n')); err != nil {
		httpLogger().Warn("write response failed", "operation", "write_json", "error", err.Error())
	}
}

func writeError(w http.ResponseWriter, statusCode int, code, message string) {
	writeJSON(w, statusCode, apiError{
		Status:  "error",
		Code:    code,
		Message: message,
	})
}
