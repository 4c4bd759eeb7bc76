package server

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"time"
)

const problemBase = "https://dnsswitch.dev/problems/"

// Problem type URIs of the control API.
const (
	ProblemTypeBadRequest  = problemBase + "bad-request"
	ProblemTypeForbidden   = problemBase + "forbidden"
	ProblemTypeNotFound    = problemBase + "not-found"
	ProblemTypeRateLimited = problemBase + "rate-limited"
	ProblemTypeInternal    = problemBase + "internal-error"
)

var problemTypes = map[int]string{
	http.StatusBadRequest:          ProblemTypeBadRequest,
	http.StatusForbidden:           ProblemTypeForbidden,
	http.StatusNotFound:            ProblemTypeNotFound,
	http.StatusTooManyRequests:     ProblemTypeRateLimited,
	http.StatusInternalServerError: ProblemTypeInternal,
}

// ProblemTypeFor returns the type URI for status. Statuses without their
// own type get "about:blank" (RFC 7807 section 4.2).
func ProblemTypeFor(status int) string {
	if t, ok := problemTypes[status]; ok {
		return t
	}
	return "about:blank"
}

// Problem is an RFC 7807 problem details body.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

// WriteProblem writes p as application/problem+json.
func WriteProblem(w http.ResponseWriter, p Problem) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

// Error writes the problem for status with its standard title. Feature
// handlers use it for every error they return.
func Error(w http.ResponseWriter, status int, detail, instance string) {
	WriteProblem(w, Problem{
		Type:     ProblemTypeFor(status),
		Title:    http.StatusText(status),
		Status:   status,
		Detail:   detail,
		Instance: instance,
	})
}

func NotFound(w http.ResponseWriter, detail, instance string) {
	Error(w, http.StatusNotFound, detail, instance)
}

// Forbidden is returned to non-loopback peers.
func Forbidden(w http.ResponseWriter, detail, instance string) {
	Error(w, http.StatusForbidden, detail, instance)
}

func InternalError(w http.ResponseWriter, detail, instance string) {
	Error(w, http.StatusInternalServerError, detail, instance)
}

// RateLimited writes a 429 with Retry-After in whole seconds, at least 1.
func RateLimited(w http.ResponseWriter, retryAfter time.Duration, detail, instance string) {
	secs := int(math.Ceil(retryAfter.Seconds()))
	w.Header().Set("Retry-After", strconv.Itoa(max(secs, 1)))
	Error(w, http.StatusTooManyRequests, detail, instance)
}
