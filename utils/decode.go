package utils

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// DecodeJSON strictly decodes the request body into dst. Unknown fields,
// trailing data and malformed JSON are rejected as bad requests.
func DecodeJSON(c *gin.Context, dst interface{}) error {
	if c.Request.Body == nil {
		return NewBadRequestError("request body is required")
	}
	dec := json.NewDecoder(c.Request.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return NewBadRequestError("request body is required")
		}
		return &AppError{Status: http.StatusBadRequest, Code: CodeBadRequest, Message: "invalid request body", Err: err}
	}
	if dec.More() {
		return NewBadRequestError("request body must contain a single JSON object")
	}
	return nil
}

// ParseID reads a positive integer path parameter.
func ParseID(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Param(name)), 10, 32)
	if err != nil || id == 0 {
		return 0, NewBadRequestError("invalid " + name)
	}
	return uint(id), nil
}

// FlexInt accepts a JSON number or a numeric string. Values that cannot be
// coerced are kept with Valid=false so that validation can report them.
type FlexInt struct {
	Value int
	Valid bool
}

func (f *FlexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = FlexInt{}
		return nil
	}
	raw := string(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
	}
	if n, err := strconv.Atoi(raw); err == nil {
		*f = FlexInt{Value: n, Valid: true}
		return nil
	}
	if fl, err := strconv.ParseFloat(raw, 64); err == nil && fl == float64(int(fl)) {
		*f = FlexInt{Value: int(fl), Valid: true}
		return nil
	}
	*f = FlexInt{}
	return nil
}

func (f FlexInt) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(f.Value)), nil
}
