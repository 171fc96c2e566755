package dispatch

import (
	"bytes"
	"encoding/json"
	"fmt"

	"automations/internal/shopify"
)

// ValidationError marks an event that can never be processed. It is logged
// and acknowledged, never retried.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid event: " + e.Reason
}

func invalid(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// EntityRef is what a webhook payload says about the entity it concerns.
type EntityRef struct {
	GlobalID string
	LocalID  int64
}

// DecodeEntityRef requires a JSON object with a string admin_graphql_api_id.
// localIDField, when non-empty, names an optional numeric ID such as order_id.
func DecodeEntityRef(payload json.RawMessage, localIDField string) (EntityRef, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(payload, &obj); err != nil || obj == nil {
		return EntityRef{}, invalid("payload is not a JSON object")
	}

	raw, ok := obj["admin_graphql_api_id"]
	if !ok || !isJSONString(raw) {
		return EntityRef{}, invalid("admin_graphql_api_id missing or not a string")
	}

	var ref EntityRef
	if err := json.Unmarshal(raw, &ref.GlobalID); err != nil {
		return EntityRef{}, invalid("admin_graphql_api_id: %v", err)
	}

	if localIDField != "" {
		if raw, ok := obj[localIDField]; ok {
			var n int64
			if err := json.Unmarshal(raw, &n); err == nil {
				ref.LocalID = n
			}
		}
	}
	return ref, nil
}

func isJSONString(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '"'
}

// ResolveID prefers the numeric local ID, then a global ID of the right kind.
func ResolveID(ref EntityRef, kind shopify.EntityKind) (string, bool) {
	if ref.LocalID > 0 {
		return shopify.GlobalID(kind, ref.LocalID), true
	}
	if shopify.IsKind(ref.GlobalID, kind) {
		return ref.GlobalID, true
	}
	return "", false
}
