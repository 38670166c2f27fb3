package message

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrUnknownType is returned for payloads whose "type" is not part of the protocol.
	ErrUnknownType = errors.New("unknown message type")

	// ErrMalformed is returned when a known message is missing required fields
	// or carries values of the wrong shape.
	ErrMalformed = errors.New("malformed message")
)

// DecodeJSON decodes a JSON encoded message.
func DecodeJSON(data []byte) (Message, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return Decode(raw)
}

// Decode validates a loosely typed payload and converts it to its Message type.
func Decode(raw map[string]any) (Message, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: empty payload", ErrMalformed)
	}
	t, ok := raw["type"].(string)
	if !ok || t == "" {
		return nil, fmt.Errorf("%w: missing type", ErrMalformed)
	}

	switch Type(t) {
	case TypeParentViewportMetrics:
		var m ParentViewportMetrics
		if v, ok := number(raw["viewportHeight"]); ok && v > 0 {
			m.ViewportHeight, m.HasViewport = v, true
		}
		if v, ok := number(raw["footerHeight"]); ok && v >= 0 {
			m.FooterHeight, m.HasFooter = v, true
		}
		if !m.HasViewport && !m.HasFooter {
			return nil, fmt.Errorf("%w: %s carries no usable metrics", ErrMalformed, t)
		}
		return m, nil
	case TypeRequestHeight:
		return RequestHeight{}, nil
	case TypeOverlayHidden:
		return OverlayHidden{}, nil
	case TypeOpenBubbleTutorial:
		reason, _ := raw["reason"].(string)
		if reason == "" {
			reason = "parent"
		}
		return OpenBubbleTutorial{Reason: reason}, nil
	case TypeBubbleTutorialScrollComplete:
		id, err := requiredString(raw, "requestId", t)
		if err != nil {
			return nil, err
		}
		return BubbleTutorialScrollComplete{RequestID: id}, nil
	case TypeContentHeight:
		h, ok := number(raw["height"])
		if !ok || h <= 0 {
			return nil, fmt.Errorf("%w: %s needs a positive height", ErrMalformed, t)
		}
		chart, _ := raw["chart"].(string)
		return ContentHeight{Chart: chart, Height: int(math.Round(h))}, nil
	case TypeChartReady:
		chart, _ := raw["chart"].(string)
		return ChartReady{Chart: chart}, nil
	case TypeUpdateURL:
		params, err := stringSlice(raw["params"])
		if err != nil {
			return nil, fmt.Errorf("%w: %s params: %v", ErrMalformed, t, err)
		}
		return UpdateURL{Params: params}, nil
	case TypeRequestChartNavigation:
		dir, err := requiredString(raw, "direction", t)
		if err != nil {
			return nil, err
		}
		if dir != DirectionNext && dir != DirectionPrevious {
			return nil, fmt.Errorf("%w: %s direction %q", ErrMalformed, t, dir)
		}
		source, _ := raw["source"].(string)
		return RequestChartNavigation{Direction: dir, Source: source}, nil
	case TypeScrollToBubbleTutorial:
		id, err := requiredString(raw, "requestId", t)
		if err != nil {
			return nil, err
		}
		return ScrollToBubbleTutorial{RequestID: id}, nil
	case TypeBubbleTutorialState:
		state, err := requiredString(raw, "state", t)
		if err != nil {
			return nil, err
		}
		if state != TutorialOpened && state != TutorialClosed {
			return nil, fmt.Errorf("%w: %s state %q", ErrMalformed, t, state)
		}
		source, _ := raw["source"].(string)
		return BubbleTutorialState{State: state, Source: source}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
}

// Encode converts m to the plain object shape posted across the frame boundary.
func Encode(m Message) map[string]any {
	out := map[string]any{"type": string(m.Type())}
	switch v := m.(type) {
	case ParentViewportMetrics:
		if v.HasViewport {
			out["viewportHeight"] = v.ViewportHeight
		}
		if v.HasFooter {
			out["footerHeight"] = v.FooterHeight
		}
	case OpenBubbleTutorial:
		out["reason"] = v.Reason
	case BubbleTutorialScrollComplete:
		out["requestId"] = v.RequestID
	case ContentHeight:
		out["chart"] = v.Chart
		out["height"] = v.Height
	case ChartReady:
		out["chart"] = v.Chart
	case UpdateURL:
		params := make([]any, len(v.Params))
		for i, p := range v.Params {
			params[i] = p
		}
		out["params"] = params
	case RequestChartNavigation:
		out["direction"] = v.Direction
		out["source"] = v.Source
	case ScrollToBubbleTutorial:
		out["requestId"] = v.RequestID
	case BubbleTutorialState:
		out["state"] = v.State
		out["source"] = v.Source
	}
	return out
}

// EncodeJSON is Encode followed by json.Marshal.
func EncodeJSON(m Message) ([]byte, error) {
	return json.Marshal(Encode(m))
}

func requiredString(raw map[string]any, key string, t string) (string, error) {
	s, ok := raw[key].(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("%w: %s requires %s", ErrMalformed, t, key)
	}
	return s, nil
}

// number accepts the numeric shapes a structured-clone or JSON payload may carry.
func number(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func stringSlice(v any) ([]string, error) {
	switch s := v.(type) {
	case []string:
		return append([]string(nil), s...), nil
	case []any:
		out := make([]string, 0, len(s))
		for i, item := range s {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("item %d is %T", i, item)
			}
			out = append(out, str)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected list, got %T", v)
	}
}
