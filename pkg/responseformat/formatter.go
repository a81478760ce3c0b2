package responseformat

import (
	"bytes"
	"encoding/json"
	"mime"
	"net/http"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// Content types produced by the Formatter
const (
	ContentTypeJSON    = "application/json"
	ContentTypeMsgPack = "application/x-msgpack"
)

// Formatter handles encoding and writing responses in JSON or MessagePack format
type Formatter struct{}

// NewFormatter creates a new response formatter
func NewFormatter() *Formatter {
	return &Formatter{}
}

// ErrorBody is the payload of every error response
type ErrorBody struct {
	Error string `json:"error"`
}

// WantsMsgPack reports whether the client asked for MessagePack, either
// with format=msgpack or with an Accept header naming a MessagePack type.
func WantsMsgPack(req *http.Request) bool {
	if req.URL.Query().Get("format") == "msgpack" {
		return true
	}
	for _, part := range strings.Split(req.Header.Get("Accept"), ",") {
		mt, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		if mt == ContentTypeMsgPack || mt == "application/msgpack" {
			return true
		}
	}
	return false
}

// WriteResponse writes data with a 200 status in the format the request asks for.
// JSON is the default format.
func (f *Formatter) WriteResponse(w http.ResponseWriter, req *http.Request, data any, headers map[string]string) error {
	return f.WriteStatus(w, req, http.StatusOK, data, headers)
}

// WriteStatus is WriteResponse with an explicit status code.
func (f *Formatter) WriteStatus(w http.ResponseWriter, req *http.Request, status int, data any, headers map[string]string) error {
	// Set any provided headers first
	for k, v := range headers {
		w.Header().Set(k, v)
	}

	useMsgPack := WantsMsgPack(req)
	body, err := f.Encode(data, useMsgPack)
	if err != nil {
		http.Error(w, "error encoding response", http.StatusInternalServerError)
		return err
	}

	if useMsgPack {
		w.Header().Set("Content-Type", ContentTypeMsgPack)
	} else {
		w.Header().Set("Content-Type", ContentTypeJSON)
	}
	w.WriteHeader(status)
	_, err = w.Write(body)
	return err
}

// WriteError writes an ErrorBody with the given status.
func (f *Formatter) WriteError(w http.ResponseWriter, req *http.Request, status int, message string) error {
	return f.WriteStatus(w, req, status, ErrorBody{Error: message}, nil)
}

// Encode marshals data as MessagePack or as newline-terminated JSON.
func (f *Formatter) Encode(data any, useMsgPack bool) ([]byte, error) {
	var buf bytes.Buffer
	if useMsgPack {
		encoder := msgpack.NewEncoder(&buf)
		encoder.SetCustomStructTag("json") // Use json tags for MessagePack
		if err := encoder.Encode(data); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
