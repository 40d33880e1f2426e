package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tamasystem/callpad/internal/adapters/server/common"
	"github.com/tamasystem/callpad/internal/domain"
)

// stubDirectory provides deterministic directory responses for handler tests.
type stubDirectory struct {
	search      common.SearchCandidatesResult
	identity    common.ResolveIdentityResult
	intent      common.CallIntentResult
	info        common.PhonebookInfo
	err         error
	lastSearch  common.SearchCandidatesRequest
	lastResolve common.ResolveIdentityRequest
	lastBuild   common.BuildCallIntentRequest
	reloads     int
}

// SearchCandidates records the request and returns the configured response.
func (s *stubDirectory) SearchCandidates(_ context.Context, req common.SearchCandidatesRequest) (common.SearchCandidatesResult, error) {
	s.lastSearch = req
	return s.search, s.err
}

// ResolveIdentity records the request and returns the configured response.
func (s *stubDirectory) ResolveIdentity(_ context.Context, req common.ResolveIdentityRequest) (common.ResolveIdentityResult, error) {
	s.lastResolve = req
	return s.identity, s.err
}

// BuildCallIntent records the request and returns the configured response.
func (s *stubDirectory) BuildCallIntent(_ context.Context, req common.BuildCallIntentRequest) (common.CallIntentResult, error) {
	s.lastBuild = req
	return s.intent, s.err
}

// ReloadPhonebook counts reloads and returns the configured response.
func (s *stubDirectory) ReloadPhonebook(context.Context) (common.PhonebookInfo, error) {
	s.reloads++
	return s.info, s.err
}

// serve runs one request through a handler over stub.
func serve(stub *stubDirectory, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	NewHandler(stub).ServeHTTP(rec, req)
	return rec
}

// decodeError decodes one error envelope from rec.
func decodeError(t *testing.T, rec *httptest.ResponseRecorder) APIError {
	t.Helper()
	var env ErrorEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	return env.Error
}

// TestHandlerSearchCandidates verifies query and limit forwarding.
func TestHandlerSearchCandidates(t *testing.T) {
	stub := &stubDirectory{search: common.SearchCandidatesResult{
		Query:      "ta",
		Candidates: []domain.CandidateEntry{{DisplayName: "Taro", Number: "0312345678"}},
	}}
	rec := serve(stub, http.MethodGet, "/candidates?q=ta&limit=5", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var got common.SearchCandidatesResult
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(got.Candidates) != 1 || got.Candidates[0].DisplayName != "Taro" {
		t.Fatalf("unexpected candidates %#v", got.Candidates)
	}
	if stub.lastSearch.Query != "ta" || stub.lastSearch.Limit != 5 {
		t.Fatalf("unexpected forwarded request %#v", stub.lastSearch)
	}

	rec = serve(stub, http.MethodGet, "/candidates?limit=many", "")
	if rec.Code != http.StatusBadRequest || decodeError(t, rec).Code != "invalid_request" {
		t.Fatalf("bad limit status = %d", rec.Code)
	}
}

// TestHandlerResolveIdentity verifies from is required and forwarded.
func TestHandlerResolveIdentity(t *testing.T) {
	stub := &stubDirectory{identity: common.ResolveIdentityResult{
		Identity: domain.ResolvedIdentity{DisplayText: "Taro", CanonicalNumber: "0312345678"},
		Matched:  true,
		Dialable: true,
	}}
	rec := serve(stub, http.MethodGet, "/resolve/?from=Taro", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if stub.lastResolve.From != "Taro" {
		t.Fatalf("from = %q, want Taro", stub.lastResolve.From)
	}

	rec = serve(stub, http.MethodGet, "/resolve?from=%20", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("blank from status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

// TestHandlerBuildCallIntent verifies strict body decoding and the created response.
func TestHandlerBuildCallIntent(t *testing.T) {
	stub := &stubDirectory{intent: common.CallIntentResult{
		ID:          "call-1",
		Intent:      domain.CallIntent{Destination: "09012345678", SourceDisplay: "Taro", SourceNumber: "0312345678"},
		Request:     domain.DialRequest{URL: "zoomphonecall://%2B819012345678?callerid=%2B81312345678"},
		RequestedAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}}
	rec := serve(stub, http.MethodPost, "/call_intents", `{"destination":"090-1234-5678","from":"Taro"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusCreated)
	}
	if stub.lastBuild.Destination != "090-1234-5678" || stub.lastBuild.From != "Taro" {
		t.Fatalf("unexpected forwarded request %#v", stub.lastBuild)
	}
	var got common.CallIntentResult
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got.Request.URL != stub.intent.Request.URL {
		t.Fatalf("url = %q, want %q", got.Request.URL, stub.intent.Request.URL)
	}

	for _, body := range []string{`{"destination":"1","extra":true}`, `{"destination":"1"}{}`, `not json`} {
		rec = serve(stub, http.MethodPost, "/call_intents", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %q status = %d, want %d", body, rec.Code, http.StatusBadRequest)
		}
	}
}

// TestHandlerReloadPhonebook verifies reload accepts an empty body.
func TestHandlerReloadPhonebook(t *testing.T) {
	stub := &stubDirectory{info: common.PhonebookInfo{Source: "book.csv", Entries: 2}}
	rec := serve(stub, http.MethodPost, "/phonebook/reload", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if stub.reloads != 1 {
		t.Fatalf("reloads = %d, want 1", stub.reloads)
	}
}

// TestHandlerErrorMapping verifies structured status mapping for directory errors.
func TestHandlerErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "invalid number", err: errors.Join(common.ErrInvalidNumberFormat, domain.ErrInvalidNumberFormat), wantStatus: http.StatusUnprocessableEntity, wantCode: "invalid_number_format"},
		{name: "invalid request", err: common.ErrInvalidRequest, wantStatus: http.StatusBadRequest, wantCode: "invalid_request"},
		{name: "throttled", err: common.ErrReloadThrottled, wantStatus: http.StatusTooManyRequests, wantCode: "reload_throttled"},
		{name: "unavailable", err: common.ErrPhonebookUnavailable, wantStatus: http.StatusServiceUnavailable, wantCode: "load_failed"},
		{name: "not found", err: common.ErrNotFound, wantStatus: http.StatusNotFound, wantCode: "not_found"},
		{name: "other", err: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantCode: "internal_error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(&stubDirectory{err: tc.err}, http.MethodPost, "/phonebook/reload", "")
			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			if got := decodeError(t, rec).Code; got != tc.wantCode {
				t.Fatalf("code = %q, want %q", got, tc.wantCode)
			}
		})
	}
}

// TestHandlerRouting verifies unknown paths, wrong methods and missing services.
func TestHandlerRouting(t *testing.T) {
	rec := serve(&stubDirectory{}, http.MethodGet, "/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown path status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	rec = serve(&stubDirectory{}, http.MethodDelete, "/call_intents", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("wrong method status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
	if allow := rec.Header().Get("Allow"); allow != http.MethodPost {
		t.Fatalf("Allow = %q, want POST", allow)
	}

	rec = httptest.NewRecorder()
	NewHandler(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/candidates", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("nil service status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}
