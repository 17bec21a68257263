package handlers

import (
	"encoding/json"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sparktechagency/Mobile-Repair/internal/platform/errors"
)

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(data)
}

// WriteJSONWithStatus writes a JSON response with a specific status code
func WriteJSONWithStatus(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteError writes an error response
func WriteError(w http.ResponseWriter, statusCode int, message string) error {
	return WriteJSONWithStatus(w, statusCode, ErrorResponse{
		Error: message,
		Code:  statusCode,
	})
}

// writeServiceError translates a typed service error into an HTTP response
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.IsValidation(err):
		WriteError(w, http.StatusBadRequest, err.Error())
	case errors.IsNotFound(err):
		WriteError(w, http.StatusNotFound, err.Error())
	case errors.IsInvalidState(err):
		WriteError(w, http.StatusConflict, err.Error())
	case errors.IsForbidden(err):
		WriteError(w, http.StatusForbidden, err.Error())
	case errors.IsConflict(err):
		WriteError(w, http.StatusConflict, err.Error())
	case errors.IsExternal(err):
		WriteError(w, http.StatusBadGateway, "upstream dependency failed")
	default:
		WriteError(w, http.StatusInternalServerError, "internal server error")
	}
}

// queryParams flattens the request's query string into the builder's input
// shape; repeated keys keep the first value
func queryParams(r *http.Request) map[string]string {
	values := r.URL.Query()
	params := make(map[string]string, len(values))
	for key, list := range values {
		if len(list) > 0 {
			params[key] = list[0]
		}
	}
	return params
}

// parseObjectID converts a path or token parameter into an ObjectID
func parseObjectID(raw string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, errors.NewValidation("invalid id format")
	}
	return oid, nil
}
