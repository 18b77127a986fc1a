package server

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// reply is a response built in full before anything is written
type reply struct {
	status      int
	contentType string
	body        []byte
}

func (r reply) write(w http.ResponseWriter) {
	w.Header().Set("Content-Type", r.contentType)
	w.WriteHeader(r.status)
	w.Write(r.body)
}

// jsonReply encodes payload up front so encoding errors still produce a clean 500
func jsonReply(status int, payload interface{}) reply {
	body, err := json.Marshal(payload)
	if err != nil {
		status = http.StatusInternalServerError
		body = []byte(`{"error":"failed to encode response","status":500}`)
	}
	return reply{status: status, contentType: "application/json", body: append(body, '\n')}
}

func errorReply(status int, message string) reply {
	return jsonReply(status, map[string]interface{}{
		"error":  message,
		"status": status,
	})
}

// writeJSON encodes payload with the given status
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	jsonReply(status, payload).write(w)
}

// writeError answers with a JSON error body
func writeError(w http.ResponseWriter, status int, message string) {
	errorReply(status, message).write(w)
}

// queryFloat parses a float query parameter, def when absent
func queryFloat(r *http.Request, name string, def float64) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	return strconv.ParseFloat(raw, 64)
}

// queryBool parses a boolean query parameter; ok is false when it is absent or malformed
func queryBool(r *http.Request, name string) (value bool, ok bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
