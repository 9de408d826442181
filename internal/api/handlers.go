package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Veraticus/holdscan/internal/classification"
	"github.com/Veraticus/holdscan/internal/common"
	"github.com/Veraticus/holdscan/internal/model"
	"github.com/Veraticus/holdscan/internal/pipeline"
)

// pageRequest is one OCR page. Lines is the geometry-free shortcut for plain text dumps.
type pageRequest struct {
	Name   string        `json:"name"`
	Tokens []model.Token `json:"tokens,omitempty"`
	Lines  []string      `json:"lines,omitempty"`
}

type scanRequest struct {
	Channel  string        `json:"channel,omitempty"`
	Pages    []pageRequest `json:"pages"`
	Classify bool          `json:"classify,omitempty"`
}

type scanResponse struct {
	*pipeline.Result
	Classified []model.ClassifiedRecord `json:"classified,omitempty"`
}

type holdingRequest struct {
	Name string `json:"name"`
	Code string `json:"code,omitempty"`
}

type classifyRequest struct {
	Holdings []holdingRequest `json:"holdings"`
	Verbose  bool             `json:"verbose,omitempty"`
}

type classifyResult struct {
	Name     string             `json:"name"`
	Code     string             `json:"code,omitempty"`
	Taxonomy model.TaxonomyPath `json:"taxonomy"`
	Path     string             `json:"path"`
	Trace    []string           `json:"trace,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	sendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	logger := loggerFrom(r.Context())

	var req scanRequest
	if err := decodeJSON(r, &req); err != nil {
		sendJSONError(w, err.Error(), statusFor(err))
		return
	}
	if len(req.Pages) == 0 {
		sendJSONError(w, "at least one page is required", http.StatusBadRequest)
		return
	}

	channel, err := model.ParseChannel(req.Channel)
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	pages := make([]model.Page, len(req.Pages))
	for i, p := range req.Pages {
		name := p.Name
		if name == "" {
			name = fmt.Sprintf("page-%d", i+1)
		}
		tokens := p.Tokens
		if len(tokens) == 0 {
			tokens = model.TextTokens(p.Lines)
		}
		pages[i] = model.Page{Name: name, Tokens: tokens}
	}

	result, err := pipeline.Process(r.Context(), pages, pipeline.Options{
		Now:     s.now,
		Channel: channel,
		Workers: s.workers,
	})
	if err != nil {
		logger.Error("Scan failed", "error", err)
		sendJSONError(w, "scan failed", http.StatusInternalServerError)
		return
	}

	resp := scanResponse{Result: result}
	if req.Classify {
		resp.Classified = classification.ClassifyRecords(s.classifier, result.Data)
	}
	logger.Info("Scanned pages", "pages", len(pages), "records", result.Summary.TotalCount)
	sendJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if err := decodeJSON(r, &req); err != nil {
		sendJSONError(w, err.Error(), statusFor(err))
		return
	}
	if len(req.Holdings) == 0 {
		sendJSONError(w, "at least one holding is required", http.StatusBadRequest)
		return
	}

	results := make([]classifyResult, 0, len(req.Holdings))
	for _, h := range req.Holdings {
		name := strings.TrimSpace(h.Name)
		res := classifyResult{Name: name, Code: h.Code}
		if req.Verbose {
			res.Taxonomy, res.Trace = s.engine.Trace(name, h.Code)
		} else {
			res.Taxonomy = s.classifier.Classify(name, h.Code)
		}
		res.Path = res.Taxonomy.String()
		results = append(results, res)
	}
	sendJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) handleRules(w http.ResponseWriter, _ *http.Request) {
	rules := s.engine.Rules()
	specs := make([]classification.RuleSpec, len(rules))
	for i, rule := range rules {
		specs[i] = rule.Spec()
	}
	sendJSON(w, http.StatusOK, classification.RuleFile{Rules: specs})
}

var errEmptyBody = errors.New("request body is empty")

func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return maxErr
		case errors.Is(err, io.EOF):
			return errEmptyBody
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func statusFor(err error) int {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		common.LogError(err, "Failed to encode response", common.Fields{"status": status})
	}
}

func sendJSONError(w http.ResponseWriter, message string, status int) {
	sendJSON(w, status, map[string]string{"error": message})
}
