/*
Package server implements msgpack IPC for the tinyime composition engine.

The server drives a single composition session from key events read on
stdin and writes one response per request on stdout. Both directions are
a plain stream of msgpack maps with no framing.

# IPC

Key events carry the kind name and, depending on the kind, a character or
a candidate index:

	{"id": "k1", "k": "char", "c": "n"}
	{"id": "k2", "k": "select", "n": 1}
	{"id": "k3", "k": "done"}

Kinds are char, delete, shift, mode, select and done. Every key event is
answered with the composing text, the visible candidates, whatever was
committed while handling it, and whether the key was consumed:

	{"id": "k1", "p": "n", "s": ["n", "你", "呢"], "h": true, "r": true}
	{"id": "k2", "p": "", "s": [], "m": ["你"], "h": true, "r": true}

When h is false the host performs the key's ordinary editor action, e.g.
deleting the character before the cursor.

Session actions:

	{"id": "a1", "action": "status"}
	{"id": "a2", "action": "reset"}

Failures are answered with an error message and code; the session is left
untouched:

	{"id": "k4", "e": "candidate index out of range", "c": 416}
*/
package server

// Request is a key event or a session action.
// Action wins when both are present.
type Request struct {
	ID     string `msgpack:"id"`
	Kind   string `msgpack:"k,omitempty"`
	Char   string `msgpack:"c,omitempty"`
	Index  int    `msgpack:"n,omitempty"`
	Action string `msgpack:"action,omitempty"`
}

// KeyResponse reports the session after a request
type KeyResponse struct {
	ID         string   `msgpack:"id"`
	Composing  string   `msgpack:"p"`
	Candidates []string `msgpack:"s"`
	Commits    []string `msgpack:"m,omitempty"`
	Handled    bool     `msgpack:"h"`
	Ready      bool     `msgpack:"r"`
}

// StatusResponse reports the loader and session state
type StatusResponse struct {
	ID         string `msgpack:"id"`
	Status     string `msgpack:"status"`
	Keys       int    `msgpack:"keys"`
	Entries    int    `msgpack:"entries"`
	Sources    int    `msgpack:"sources"`
	Failed     int    `msgpack:"failed"`
	Composing  string `msgpack:"p"`
	Requests   int    `msgpack:"requests"`
	LoadMillis int64  `msgpack:"t"`
}

// ErrorResponse holds basic error information for a failed request
type ErrorResponse struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"c"`
}

const (
	StatusLoading = "loading"
	StatusReady   = "ready"
	StatusFailed  = "failed"
)

const (
	CodeBadRequest = 400
	CodeOutOfRange = 416
	CodeInternal   = 500
)
