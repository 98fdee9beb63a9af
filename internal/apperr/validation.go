package apperr

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation"
)

// FromValidation converts ozzo validation.Errors into a Validation error keyed
// by json field name. Other errors are returned unchanged.
func FromValidation(err error) error {
	if err == nil {
		return nil
	}
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for field, ferr := range verrs {
		if ferr != nil {
			fields[field] = ferr.Error()
		}
	}
	return Validation(fields)
}

// MaxBodyBytes caps JSON request bodies.
const MaxBodyBytes = 64 << 10

// DecodeJSON decodes the request body into v. A body that is not valid JSON
// or is larger than MaxBodyBytes is a Validation error without field details.
func DecodeJSON(r *http.Request, v any) error {
	body := http.MaxBytesReader(nil, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return &Error{Kind: KindValidation, Message: "invalid payload", Err: err}
	}
	return nil
}

// PathInt64 parses the named path value. A value that is not an integer
// cannot match a row and is reported as NotFound.
func PathInt64(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil {
		return 0, NotFound("not found")
	}
	return id, nil
}
