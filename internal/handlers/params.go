package handlers

import (
	"net/http"
	"strconv"

	"github.com/MegMacD/wordpointe-sub001/internal/validation"
	"github.com/gorilla/mux"
)

// queryID parses a required positive integer query parameter
func queryID(r *http.Request, name string) (int64, error) {
	return parseID(name, r.URL.Query().Get(name))
}

// pathID parses a positive integer route variable
func pathID(r *http.Request, name string) (int64, error) {
	return parseID(name, mux.Vars(r)[name])
}

func parseID(name, raw string) (int64, error) {
	if raw == "" {
		return 0, validation.ValidationError{Field: name, Message: name + " is required"}
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, validation.ValidationError{Field: name, Message: name + " must be a positive integer"}
	}
	return id, nil
}
