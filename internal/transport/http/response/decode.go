package response

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/baechuer/nippou-service/internal/domain"
)

const maxBodyBytes = 1 << 20

// DecodeJSON decodes a JSON request body into dst.
// It rejects unknown fields and multiple JSON values.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	return decode(w, r, dst, true)
}

// DecodeJSONLenient is DecodeJSON without the unknown-field check. Report
// bodies use it since clients round-trip whole objects.
func DecodeJSONLenient(w http.ResponseWriter, r *http.Request, dst any) error {
	return decode(w, r, dst, false)
}

func decode(w http.ResponseWriter, r *http.Request, dst any, strict bool) error {
	if r.Body == nil {
		return domain.ErrInvalidJSON(errors.New("empty body"))
	}
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(body)
	if strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(dst); err != nil {
		return domain.ErrInvalidJSON(err)
	}

	// Disallow trailing data: {}{}
	if err := dec.Decode(&struct{}{}); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return domain.ErrInvalidJSON(err)
	}
	return domain.ErrInvalidJSON(errors.New("multiple JSON values"))
}
