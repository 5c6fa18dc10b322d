package apiclient

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/marketplace-admin/console/internal/core/domain"
)

const maxLoggedBody = 2048

// envelopeKeys are top-level error-body keys that are not field names.
var envelopeKeys = map[string]bool{
	"detail":  true,
	"error":   true,
	"message": true,
	"code":    true,
	"errors":  true,
}

func newRequestError(method, url string, status int, body []byte) *domain.RequestError {
	detail, code, fields := parseErrorBody(body)
	e := &domain.RequestError{
		Method:      method,
		URL:         url,
		Status:      status,
		Body:        body,
		Detail:      detail,
		Code:        code,
		FieldErrors: fields,
	}
	if status == http.StatusForbidden && (code == domain.AuthRequiredCode || detail == domain.AuthRequiredDetail) {
		e.IsAuthError = true
	}
	return e
}

// parseErrorBody understands the common error envelopes:
//
//	{"detail": "...", "code": "..."}
//	{"error": "..."}
//	{"field": ["msg", ...], "other": "msg"}
//	{"errors": {"field": ["msg"]}}
//
// Non-JSON bodies become the detail text.
func parseErrorBody(body []byte) (detail, code string, fields map[string][]string) {
	if len(body) == 0 {
		return "", "", nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		text := strings.TrimSpace(string(body))
		if len(text) > 200 {
			text = text[:200]
		}
		return text, "", nil
	}

	for _, key := range []string{"detail", "error", "message"} {
		if s, ok := asString(raw[key]); ok && detail == "" {
			detail = s
		}
	}
	code, _ = asString(raw["code"])

	collect := func(m map[string]json.RawMessage, skipEnvelope bool) {
		for k, v := range m {
			if skipEnvelope && envelopeKeys[k] {
				continue
			}
			if msgs, ok := asStrings(v); ok {
				if fields == nil {
					fields = make(map[string][]string)
				}
				fields[k] = append(fields[k], msgs...)
			}
		}
	}
	collect(raw, true)
	if nested, ok := raw["errors"]; ok {
		var m map[string]json.RawMessage
		if json.Unmarshal(nested, &m) == nil {
			collect(m, false)
		}
	}
	return detail, code, fields
}

func asString(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func asStrings(raw json.RawMessage) ([]string, bool) {
	if s, ok := asString(raw); ok {
		return []string{s}, true
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, false
	}
	return list, true
}

var sensitiveHeaders = map[string]bool{
	"Cookie":        true,
	"Set-Cookie":    true,
	"Authorization": true,
	"X-Csrftoken":   true,
	"X-Xsrf-Token":  true,
	"Csrf-Token":    true,
	"X-Csrf-Token":  true,
}

func redactHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, vs := range h {
		if sensitiveHeaders[http.CanonicalHeaderKey(k)] {
			out[k] = "[redacted]"
			continue
		}
		out[k] = strings.Join(vs, ", ")
	}
	return out
}

func redactBody(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var obj any
	if err := json.Unmarshal(body, &obj); err == nil {
		if b, err := json.Marshal(redactValue(obj)); err == nil {
			body = b
		}
	}
	if len(body) > maxLoggedBody {
		return string(body[:maxLoggedBody]) + "…"
	}
	return string(body)
}

// redactValue masks password and token keys at any depth.
func redactValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, inner := range t {
			lk := strings.ToLower(k)
			if strings.Contains(lk, "password") || strings.Contains(lk, "token") {
				t[k] = "[redacted]"
				continue
			}
			t[k] = redactValue(inner)
		}
	case []any:
		for i, inner := range t {
			t[i] = redactValue(inner)
		}
	}
	return v
}
