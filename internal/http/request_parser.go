package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ledger/internal/core"
)

// maxBodyBytes bounds request bodies; ledger payloads are a few hundred bytes.
const maxBodyBytes = 1 << 20

// RequestBodyParser reads a body once and serves fields from it whether it
// was sent as JSON or form-encoded.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return p
}

// Parse decodes the body. JSON is detected from the content type or a
// leading brace; anything else is treated as a form.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	trimmed := strings.TrimSpace(string(p.body))
	if trimmed == "" {
		p.formData = url.Values{}
		return nil
	}

	if strings.HasPrefix(p.contentType, "application/json") || trimmed[0] == '{' {
		dec := json.NewDecoder(strings.NewReader(trimmed))
		dec.UseNumber()
		if err := dec.Decode(&p.jsonData); err != nil {
			p.err = fmt.Errorf("decode json body: %w", err)
			return p.err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(trimmed)
	if p.err != nil {
		p.err = fmt.Errorf("decode form body: %w", p.err)
	}
	return p.err
}

// Get returns a field with control characters removed. Missing fields are "".
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// sanitizeInput trims whitespace and drops control characters other than
// tab, newline and carriage return.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}

// transactionInput collects the writable transaction fields from a body.
func transactionInput(p *RequestBodyParser) (core.TransactionInput, error) {
	accountID, err := parseAccountID(p.Get("account_id"), core.DefaultAccountID)
	if err != nil {
		return core.TransactionInput{}, err
	}
	return core.TransactionInput{
		AccountID: accountID,
		Date:      p.Get("date"),
		Direction: p.Get("direction"),
		Amount:    p.Get("amount"),
		Category:  p.Get("category"),
		Note:      p.Get("note"),
	}, nil
}

// parseFilter reads start, end and account_id from the query. Missing
// bounds default to the calendar month containing now.
func parseFilter(query url.Values, now time.Time) (core.Filter, error) {
	monthStart, monthEnd := core.CurrentMonthRange(now)

	start := strings.TrimSpace(query.Get("start"))
	if start == "" {
		start = monthStart.String()
	}
	end := strings.TrimSpace(query.Get("end"))
	if end == "" {
		end = monthEnd.String()
	}

	accountID, err := parseAccountID(query.Get("account_id"), 0)
	if err != nil {
		return core.Filter{}, err
	}
	return core.NewFilter(start, end, accountID)
}

func parseAccountID(raw string, fallback int64) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		return 0, &core.ValidationError{Field: "account_id", Reason: "account id must be a non-negative integer"}
	}
	return id, nil
}

// pathID parses the {id} wildcard of the matched route.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, &core.ValidationError{Field: "id", Reason: "id must be a positive integer"}
	}
	return id, nil
}

func parseBool(raw string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(raw))
	return err == nil && b
}
