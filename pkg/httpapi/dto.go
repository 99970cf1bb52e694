package httpapi

import "encoding/json"

// analysisRequest is the POST /analysis request body.
type analysisRequest struct {
	ClientID     string `json:"clientId"`
	GeoJSON      string `json:"geoJson"`
	WorkflowName string `json:"workflowName"`
}

// analysisResponse is the POST /analysis 202 response body.
type analysisResponse struct {
	WorkflowID string `json:"workflowId"`
	Message    string `json:"message"`
}

// statusResponse is the GET /workflow/:id/status response body.
type statusResponse struct {
	WorkflowID     string `json:"workflowId"`
	Status         string `json:"status"`
	CompletedTasks int    `json:"completedTasks"`
	TotalTasks     int    `json:"totalTasks"`
}

// resultsResponse is the GET /workflow/:id/results response body when the
// workflow has reached a terminal state.
type resultsResponse struct {
	WorkflowID  string      `json:"workflowId"`
	Status      string      `json:"status"`
	FinalResult interface{} `json:"finalResult"`
}

// resultsPendingResponse is the GET /workflow/:id/results response body
// when the workflow has not yet reached a terminal state.
type resultsPendingResponse struct {
	Message    string `json:"message"`
	WorkflowID string `json:"workflowId"`
	Status     string `json:"status"`
}

// parseFinalResult decodes a serialized finalResult string, falling back to
// the raw string if it is not valid JSON.
func parseFinalResult(raw string) interface{} {
	var v interface{}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	return v
}
