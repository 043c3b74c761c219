package protocol

import (
	"encoding/json"
	"fmt"
)

type immediateWire struct {
	Kind      string  `json:"kind"`
	Left      float64 `json:"left"`
	Right     float64 `json:"right"`
	TimeoutMS uint32  `json:"timeout_ms"`
}

type commandWire struct {
	Type    string        `json:"type"`
	Command immediateWire `json:"command"`
}

// FormatImmediate serializes the canonical command/immediate envelope, the
// inverse of Parse for that shape. Floating values keep full float32
// precision across the round trip.
//
// nowMS mirrors the immediate capability signature but is never serialized:
// the receiver stamps its own clock at dispatch time.
func FormatImmediate(leftFrac, rightFrac float32, timeoutMS, nowMS uint32) ([]byte, error) {
	_ = nowMS
	doc := commandWire{
		Type: string(TypeCommand),
		Command: immediateWire{
			Kind:      string(KindImmediate),
			Left:      float64(leftFrac),
			Right:     float64(rightFrac),
			TimeoutMS: timeoutMS,
		},
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode immediate: %w", err)
	}
	return payload, nil
}
