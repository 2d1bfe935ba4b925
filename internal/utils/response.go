package utils

import (
	"encoding/json"
	"net/http"
)

// JSONResponse sends v as a JSON body with the given status
func JSONResponse(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// JSONError sends the failure payload shape used by every API endpoint:
// a JSON object carrying an "error" string field.
func JSONError(w http.ResponseWriter, status int, msg string) {
	JSONResponse(w, status, map[string]string{"error": msg})
}
