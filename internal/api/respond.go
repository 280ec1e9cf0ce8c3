package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"ms-booking/internal/auth"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(dateValue, Date{})
	return v
}

// SendJSON writes data with the given status as a JSON body.
func SendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func SendMessage(w http.ResponseWriter, status int, message string) {
	SendJSON(w, status, map[string]string{"message": message})
}

// StatusFor maps a service error onto an HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNotAuthorized):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrForbiddenRole):
		return http.StatusForbidden
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrCapacityExceeded), errors.Is(err, models.ErrPackageLocked):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// SendError logs err under category and answers with its mapped status. Internal errors
// are not echoed to the client.
func SendError(w http.ResponseWriter, log *logger.Logger, category string, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		log.Error(category, err.Error())
		SendMessage(w, status, "internal server error")
		return
	}
	log.Warn(category, err.Error())
	SendMessage(w, status, err.Error())
}

// Decode reads a JSON body into dst and runs its validate tags.
func Decode(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %v: %w", err, models.ErrInvalidInput)
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("%s: %w", strings.Join(fields, ", "), models.ErrInvalidInput)
		}
		return fmt.Errorf("%v: %w", err, models.ErrInvalidInput)
	}
	return nil
}

// Actor returns the authenticated caller, answering 401 when the request carries none.
func Actor(w http.ResponseWriter, r *http.Request) (models.Actor, bool) {
	actor, ok := auth.ActorFrom(r.Context())
	if !ok {
		SendMessage(w, http.StatusUnauthorized, "not authenticated")
	}
	return actor, ok
}

// NonNil keeps empty listings encoding as [] rather than null.
func NonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
