package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/querybridge/querybridge/internal/observability"
	"github.com/querybridge/querybridge/internal/pipeline"
)

const maxAskBodyBytes = 64 << 10

const (
	chatQuestionRequired = "Question is required."
	chatUnavailable      = "Failed to connect to the query service."
)

type askRequest struct {
	Question string `json:"question"`
}

// handleAsk always answers 200; failures are reported in the "error" field
// so chat clients can render them inline.
func handleAsk(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Asker == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "PIPELINE_NOT_CONFIGURED", "question pipeline is not configured", false, nil)
		return
	}

	request := readAskRequest(w, r)
	outcome := deps.Asker.Ask(r.Context(), request.Question)
	writeJSON(w, http.StatusOK, askResponse(outcome))
}

// handleChat backs the dashboard chat panel. It requires a question, echoes
// it back and reports only question, sql, results and error. Pipeline
// failures are still answered with 200.
func handleChat(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	request := readAskRequest(w, r)
	if strings.TrimSpace(request.Question) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": chatQuestionRequired})
		return
	}
	if deps.Asker == nil {
		observability.RequestLogger(r.Context(), deps.Logger).Error("chat request without a question pipeline")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": chatUnavailable})
		return
	}

	outcome := deps.Asker.Ask(r.Context(), request.Question)
	writeJSON(w, http.StatusOK, chatResponse(request.Question, outcome))
}

// readAskRequest treats unreadable or unparseable bodies as an empty
// question.
func readAskRequest(w http.ResponseWriter, r *http.Request) askRequest {
	var request askRequest
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxAskBodyBytes))
	if err == nil {
		_ = json.Unmarshal(body, &request)
	}
	return request
}

func askResponse(outcome pipeline.Outcome) map[string]any {
	response := map[string]any{}
	if outcome.Failed() {
		response["error"] = outcome.Error
		if outcome.SQL != "" {
			response["sql"] = outcome.SQL
		}
		return response
	}
	response["sql"] = outcome.SQL
	response["results"] = outcome.Records
	if outcome.Message != "" {
		response["message"] = outcome.Message
	}
	return response
}

func chatResponse(question string, outcome pipeline.Outcome) map[string]any {
	response := map[string]any{"question": question}
	if outcome.SQL != "" {
		response["sql"] = outcome.SQL
	}
	if outcome.Records != nil {
		response["results"] = outcome.Records
	}
	if outcome.Failed() {
		response["error"] = outcome.Error
	}
	return response
}
