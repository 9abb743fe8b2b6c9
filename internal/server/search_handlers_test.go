package server

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/rishikanthc/zendown/internal/similarity"
)

func TestRelatedNotesRoute(t *testing.T) {
	env := newTestEnv(t)
	anchor := decodeBody(t, env.do(t, http.MethodPost, "/api/notes", gin.H{
		"title":   "Anchor",
		"content": "a",
	}))
	match := decodeBody(t, env.do(t, http.MethodPost, "/api/notes", gin.H{
		"title":   "Neighbor",
		"content": "b",
	}))
	env.searcher.matches = []similarity.Match{{ID: match["id"].(string), Score: 0.82}}

	recorder := env.do(t, http.MethodGet, "/api/notes/related?id="+anchor["id"].(string), nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	results := decodeList(t, recorder)
	if len(results) != 1 || results[0]["id"] != match["id"] || results[0]["score"] != 0.82 {
		t.Fatalf("unexpected results: %v", results)
	}
	if results[0]["canonical_path"] != "neighbor" {
		t.Fatalf("results must carry stored paths: %v", results[0])
	}
}

func TestRelatedNotesValidation(t *testing.T) {
	env := newTestEnv(t)

	missing := env.do(t, http.MethodGet, "/api/notes/related", nil)
	if missing.Code != http.StatusBadRequest || errorCode(t, missing) != "id_required" {
		t.Fatalf("expected id_required, got %d %s", missing.Code, missing.Body.String())
	}

	badThresh := env.do(t, http.MethodGet, "/api/notes/related?id=x&thresh=1.5", nil)
	if badThresh.Code != http.StatusBadRequest || errorCode(t, badThresh) != "invalid_threshold" {
		t.Fatalf("expected invalid_threshold, got %d %s", badThresh.Code, badThresh.Body.String())
	}

	badLimit := env.do(t, http.MethodGet, "/api/notes/related?id=x&limit=0", nil)
	if badLimit.Code != http.StatusBadRequest || errorCode(t, badLimit) != "invalid_limit" {
		t.Fatalf("expected invalid_limit, got %d %s", badLimit.Code, badLimit.Body.String())
	}
}

func TestSemanticSearchRoute(t *testing.T) {
	env := newTestEnv(t)
	match := decodeBody(t, env.do(t, http.MethodPost, "/api/notes", gin.H{
		"title":   "Findable",
		"content": "b",
	}))
	env.searcher.matches = []similarity.Match{{ID: match["id"].(string), Score: 0.64}}

	recorder := env.do(t, http.MethodPost, "/api/notes/semantic-search", gin.H{
		"query_text": "note apps",
	})
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	results := decodeList(t, recorder)
	if len(results) != 1 || results[0]["title"] != "Findable" {
		t.Fatalf("unexpected results: %v", results)
	}

	blank := env.do(t, http.MethodPost, "/api/notes/semantic-search", gin.H{"query_text": "  "})
	if blank.Code != http.StatusBadRequest || errorCode(t, blank) != "query_text_required" {
		t.Fatalf("expected query_text_required, got %d %s", blank.Code, blank.Body.String())
	}
}

func TestSearchIndexFailureStatuses(t *testing.T) {
	env := newTestEnv(t)

	env.searcher.err = similarity.ErrBadStatus
	recorder := env.do(t, http.MethodPost, "/api/notes/semantic-search", gin.H{"query_text": "q"})
	if recorder.Code != http.StatusBadGateway || errorCode(t, recorder) != "similarity_index_error" {
		t.Fatalf("expected 502 similarity_index_error, got %d %s", recorder.Code, recorder.Body.String())
	}

	env.searcher.err = similarity.ErrUnreachable
	recorder = env.do(t, http.MethodPost, "/api/notes/semantic-search", gin.H{"query_text": "q"})
	if recorder.Code != http.StatusServiceUnavailable || errorCode(t, recorder) != "similarity_index_unavailable" {
		t.Fatalf("expected 503 similarity_index_unavailable, got %d %s", recorder.Code, recorder.Body.String())
	}
}
