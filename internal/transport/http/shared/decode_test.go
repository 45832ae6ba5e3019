package shared

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type samplePayload struct {
	Email  string `json:"email" validate:"required,email"`
	Days   int    `json:"days" validate:"gte=0,max=60"`
	Period string `json:"period" validate:"omitempty,oneof=monthly yearly"`
	Start  string `json:"startDate" validate:"required,datetime=2006-01-02"`
}

func decode(body string) (*httptest.ResponseRecorder, samplePayload, bool) {
	var p samplePayload
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	ok := DecodeJSON(rec, req, &p, "req-1")
	return rec, p, ok
}

func TestDecodeJSONAccepts(t *testing.T) {
	_, p, ok := decode(`{"email":"a@example.com","days":3,"startDate":"2024-01-08"}`)
	require.True(t, ok)
	assert.Equal(t, 3, p.Days)
}

func TestDecodeJSONReportsFieldIssues(t *testing.T) {
	rec, _, ok := decode(`{"email":"nope","days":90,"period":"weekly","startDate":"08/01/2024"}`)
	require.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var env struct {
		Error struct {
			Code    string `json:"code"`
			Details struct {
				Fields []ValidationIssue `json:"fields"`
			} `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "validation_error", env.Error.Code)

	fields := map[string]string{}
	for _, issue := range env.Error.Details.Fields {
		fields[issue.Field] = issue.Reason
	}
	assert.Equal(t, "must be a valid email", fields["email"])
	assert.Equal(t, "must be at most 60", fields["days"])
	assert.Equal(t, "must be one of: monthly, yearly", fields["period"])
	assert.Equal(t, "must be a valid date in YYYY-MM-DD format", fields["startDate"])
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	rec, _, ok := decode(`{"email":"a@example.com","startDate":"2024-01-08","extra":1}`)
	require.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_payload")
}

func TestValidatorCollectsIssues(t *testing.T) {
	v := NewValidator()
	v.Required("name", " ", "is required")
	v.Enum("status", "Approved", []string{"approved", "rejected"}, "bad status")
	start, _ := v.Date("startDate", "2024-01-10")
	end, _ := v.Date("endDate", "2024-01-08")
	v.DateOrder("startDate", start, "endDate", end)

	issues := v.Issues()
	require.Len(t, issues, 3)
	assert.Equal(t, "endDate", issues[0].Field)
	assert.Equal(t, "name", issues[1].Field)
	assert.Equal(t, "startDate", issues[2].Field)

	rec := httptest.NewRecorder()
	assert.True(t, v.Reject(rec, "r"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestParsePagination(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=500&offset=20", nil)
	p := ParsePagination(req, 50, 200)
	assert.Equal(t, Pagination{Limit: 200, Offset: 20}, p)

	req = httptest.NewRequest(http.MethodGet, "/?limit=-1&offset=x", nil)
	assert.Equal(t, Pagination{Limit: 50}, ParsePagination(req, 50, 200))
}

func TestValidatorRangeAndInt(t *testing.T) {
	v := NewValidator()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	v.DateRange("from", start, "to", start.AddDate(0, 0, 366), 366)
	assert.False(t, v.HasIssues())
	v.DateRange("from", start, "to", start.AddDate(0, 0, 367), 366)
	require.Len(t, v.Issues(), 1)
	assert.Equal(t, "range must not exceed 366 days", v.Issues()[0].Reason)

	v = NewValidator()
	n, ok := v.Int("days", " 5 ", 1, 10)
	assert.True(t, ok)
	assert.Equal(t, 5, n)
	_, ok = v.Int("days", "0", 1, 10)
	assert.False(t, ok)
	_, ok = v.Int("days", "abc", 1, 10)
	assert.False(t, ok)
	assert.Len(t, v.Issues(), 2)
}
