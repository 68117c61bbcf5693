package registry

import (
	"encoding/json"
	"testing"

	"github.com/worldleaderio/worldleader-backend/pkg/enums"
)

func TestDecoderRegistry(t *testing.T) {
	reg := NewDecoderRegistry()
	reg.Register(enums.EventUserRegistered, 1, func(payload json.RawMessage) (interface{}, error) {
		var decoded map[string]string
		if err := json.Unmarshal(payload, &decoded); err != nil {
			return nil, err
		}
		return decoded, nil
	})

	input := json.RawMessage(`{"username":"leader"}`)
	output, err := reg.Decode(enums.EventUserRegistered, 1, input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outMap, ok := output.(map[string]string); !ok || outMap["username"] != "leader" {
		t.Fatalf("unexpected output %+v", output)
	}

	if _, err := reg.Decode(enums.EventUserOvertaken, 1, input); err == nil {
		t.Fatalf("expected error for unregistered decoder")
	}
}
