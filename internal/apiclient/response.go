package apiclient

// ERROR ENVELOPE:
// The server answers every failure with the same JSON shape:
//   {"error": "not_found", "message": "Project not found"}
//
// decodeError reverses that: the status picks the sentinel, the message is
// kept verbatim so the CLI can show what the server said. When the body is
// not the envelope (a proxy's HTML error page, an empty 502), the message
// falls back to the status text.

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/sakif/portfolio/internal/apperror"
)

// ErrorResponse is the error envelope of the remote API.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// maxErrorBody bounds how much of an error body we read.
const maxErrorBody = 64 << 10

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var envelope ErrorResponse
	message := ""
	if err := json.Unmarshal(raw, &envelope); err == nil {
		message = strings.TrimSpace(envelope.Message)
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}

	return apperror.FromStatus(resp.StatusCode, message)
}
