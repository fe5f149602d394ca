package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mileusna/useragent"

	apperrors "github.com/pol60/bastshin-sessions/internal/errors"
	"github.com/pol60/bastshin-sessions/internal/httputil"
)

var validate = validator.New()

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}

func writeError(w http.ResponseWriter, err error) {
	httputil.WriteError(w, err)
}

// decodeJSON parses and validates a request body. An empty body decodes to
// the zero value so endpoints with all-optional fields accept bare POSTs.
func decodeJSON(r *http.Request, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return validateStruct(dst)
		}
		return apperrors.InvalidInput("body", "malformed JSON")
	}
	return validateStruct(dst)
}

func validateStruct(dst any) error {
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return apperrors.InvalidInput(strings.ToLower(verrs[0].Field()), verrs[0].Tag())
		}
		return apperrors.ValidationError("Invalid request body")
	}
	return nil
}

// deviceFromRequest condenses the user agent into a short label for the
// admin session list.
func deviceFromRequest(r *http.Request) *string {
	raw := r.UserAgent()
	if raw == "" {
		return nil
	}

	ua := useragent.Parse(raw)
	parts := []string{}
	if ua.Name != "" {
		parts = append(parts, ua.Name)
	}
	if ua.OS != "" {
		parts = append(parts, ua.OS)
	}
	if len(parts) == 0 {
		return nil
	}

	device := strings.Join(parts, " / ")
	if ua.Mobile {
		device += " (mobile)"
	}
	return &device
}

func ipFromRequest(r *http.Request) *string {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	if ip == "" {
		return nil
	}
	return &ip
}
