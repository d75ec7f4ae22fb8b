package rpc

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/DeBrosOfficial/fullnode/pkg/errors"
)

type request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// isNotification reports whether the request expects no response.
func (r *request) isNotification() bool {
	return len(r.ID) == 0
}

type response struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      json.RawMessage  `json:"id"`
	Result  json.RawMessage  `json:"result,omitempty"`
	Error   *errors.RPCError `json:"error,omitempty"`
}

var nullID = json.RawMessage("null")

func errorResponse(id json.RawMessage, code int, msg string) *response {
	if len(id) == 0 {
		id = nullID
	}
	return &response{JSONRPC: "2.0", ID: id, Error: &errors.RPCError{Code: code, Message: msg}}
}

// handleMessage processes a single request or a batch and returns the
// encoded reply, or nil when nothing is to be sent.
func (s *Server) handleMessage(ctx context.Context, data []byte) []byte {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return encode(errorResponse(nil, errors.RPCInvalidRequest, "Invalid request"))
	}

	if data[0] == '[' {
		var batch []json.RawMessage
		if err := json.Unmarshal(data, &batch); err != nil {
			return encode(errorResponse(nil, errors.RPCParseError, "Parse error"))
		}
		if len(batch) == 0 {
			return encode(errorResponse(nil, errors.RPCInvalidRequest, "Invalid request"))
		}

		out := make([]*response, 0, len(batch))
		for _, raw := range batch {
			if resp := s.handleOne(ctx, raw); resp != nil {
				out = append(out, resp)
			}
		}
		if len(out) == 0 {
			return nil
		}
		return encode(out)
	}

	var probe any
	if err := json.Unmarshal(data, &probe); err != nil {
		return encode(errorResponse(nil, errors.RPCParseError, "Parse error"))
	}
	resp := s.handleOne(ctx, data)
	if resp == nil {
		return nil
	}
	return encode(resp)
}

func (s *Server) handleOne(ctx context.Context, raw json.RawMessage) *response {
	var req request
	if err := json.Unmarshal(raw, &req); err != nil {
		return errorResponse(nil, errors.RPCInvalidRequest, "Invalid request")
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		return errorResponse(req.ID, errors.RPCInvalidRequest, "Invalid request")
	}

	resp := s.call(ctx, &req)
	if req.isNotification() {
		return nil
	}
	return resp
}

func encode(v any) []byte {
	out, err := json.Marshal(v)
	if err != nil {
		out, _ = json.Marshal(errorResponse(nil, errors.RPCInternalError, "Internal error"))
	}
	return out
}
