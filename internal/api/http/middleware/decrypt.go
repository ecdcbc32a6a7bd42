package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dtroode/alumni-server/internal/api/http/response"
)

const (
	maxDecryptBody  = 1 << 20
	msgBodyTooLarge = "request body too large"
)

// FieldDecrypter opens request values that were sealed by the web client.
type FieldDecrypter interface {
	DecryptField(value string) string
	DecryptFields(obj map[string]any, fields []string)
}

// Decrypt replaces sealed values of the listed fields with their plaintext.
// Values that do not look sealed or fail to open are passed through.
type Decrypt struct {
	decrypter FieldDecrypter
	fields    []string
}

// NewDecrypt creates a Decrypt middleware for fields.
func NewDecrypt(decrypter FieldDecrypter, fields []string) *Decrypt {
	return &Decrypt{decrypter: decrypter, fields: fields}
}

// Handle decrypts top-level JSON body fields and query parameters.
func (d *Decrypt) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d.decryptQuery(r)
		if isJSON(r) && r.Body != nil && r.Body != http.NoBody {
			if err := d.decryptBody(w, r); err != nil {
				response.Fail(w, http.StatusRequestEntityTooLarge, msgBodyTooLarge, nil)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// Params decrypts route parameters. It must be attached to the endpoint so
// the parameters are already resolved.
func (d *Decrypt) Params(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			for i, key := range rctx.URLParams.Keys {
				if slices.Contains(d.fields, key) && i < len(rctx.URLParams.Values) {
					rctx.URLParams.Values[i] = d.decrypter.DecryptField(rctx.URLParams.Values[i])
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (d *Decrypt) decryptQuery(r *http.Request) {
	query := r.URL.Query()
	changed := false
	for _, field := range d.fields {
		if v := query.Get(field); v != "" {
			if plain := d.decrypter.DecryptField(v); plain != v {
				query.Set(field, plain)
				changed = true
			}
		}
	}
	if changed {
		r.URL.RawQuery = query.Encode()
	}
}

// decryptBody rewrites the JSON body in place. It fails only when the body
// exceeds maxDecryptBody.
func (d *Decrypt) decryptBody(w http.ResponseWriter, r *http.Request) error {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxDecryptBody))
	_ = r.Body.Close()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		r.Body = io.NopCloser(bytes.NewReader(raw))
		return nil
	}

	var obj map[string]any
	if json.Unmarshal(raw, &obj) != nil {
		r.Body = io.NopCloser(bytes.NewReader(raw))
		return nil
	}
	d.decrypter.DecryptFields(obj, d.fields)

	rewritten, err := json.Marshal(obj)
	if err != nil {
		rewritten = raw
	}
	r.Body = io.NopCloser(bytes.NewReader(rewritten))
	r.ContentLength = int64(len(rewritten))
	return nil
}

func isJSON(r *http.Request) bool {
	return strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "application/json")
}
