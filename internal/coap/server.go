package coap

import "strings"

const maxURIPathLen = 32

// Handler answers one request. A nil return means no response is sent
// (appropriate for a NON request the resource chooses not to ack).
type Handler func(req *Message) *Message

// Server holds resources keyed by their full URI path (§4.7: "a list of
// resources keyed by URI path segments").
type Server struct {
	resources map[string]Handler
}

// NewServer returns a Server with no resources registered.
func NewServer() *Server {
	return &Server{resources: make(map[string]Handler)}
}

// Handle registers h for path (e.g. "a/as"), replacing whatever was there.
func (s *Server) Handle(path string, h Handler) {
	s.resources[path] = h
}

// Dispatch decodes raw, reconstructs its URI path from the Uri-Path
// options, and invokes the matching resource's Handler. A message that
// fails to decode is returned as a Go error. An unrecognized critical
// option or a path over maxURIPathLen short-circuits dispatch per §4.7
// with a well-formed 4.00 error response instead, since the wire format
// itself was fine even though the message it carried wasn't actionable.
func (s *Server) Dispatch(raw []byte) ([]byte, error) {
	req, err := Decode(raw)
	if err != nil {
		return nil, err
	}

	path, ok := reconstructPath(req.Options)
	if !ok {
		return encodeOrNil(errorResponse(req, CodeBadRequest))
	}

	h, found := s.resources[path]
	if !found {
		return encodeOrNil(errorResponse(req, CodeNotFound))
	}

	return encodeOrNil(h(req))
}

func encodeOrNil(resp *Message) ([]byte, error) {
	if resp == nil {
		return nil, nil
	}
	return resp.Encode()
}

func errorResponse(req *Message, code Code) *Message {
	typ := TypeNonConfirmable
	if req.Type == TypeConfirmable {
		typ = TypeAck
	}
	return &Message{Type: typ, Code: code, MessageID: req.MessageID, Token: req.Token}
}

// reconstructPath walks a request's options in wire order (already
// delta-resolved to absolute numbers by Decode) and joins every Uri-Path
// option's value with '/'. Any option with an odd (critical, per RFC 7252
// §5.4.6) number this server doesn't otherwise recognize fails the whole
// dispatch, since a critical option the server can't act on must not be
// silently ignored.
func reconstructPath(opts []Option) (string, bool) {
	var segments []string
	for _, o := range opts {
		switch o.Number {
		case OptionUriPath:
			segments = append(segments, string(o.Value))
		case OptionContentFmt, OptionUriQuery:
			// Recognized but irrelevant to path dispatch.
		default:
			if o.Number%2 == 1 {
				return "", false
			}
		}
	}
	path := strings.Join(segments, "/")
	if len(path) > maxURIPathLen {
		return "", false
	}
	return path, true
}
