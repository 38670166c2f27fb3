package message

import (
	"errors"
	"reflect"
	"testing"
)

func TestDecode_ParentViewportMetrics(t *testing.T) {
	msg, err := Decode(map[string]any{
		"type":           "parentViewportMetrics",
		"viewportHeight": 812.0,
		"footerHeight":   "120",
	})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	m, ok := msg.(ParentViewportMetrics)
	if !ok {
		t.Fatalf("Expected ParentViewportMetrics, got %T", msg)
	}
	if !m.HasViewport || m.ViewportHeight != 812 {
		t.Errorf("Unexpected viewport: %+v", m)
	}
	if !m.HasFooter || m.FooterHeight != 120 {
		t.Errorf("Unexpected footer: %+v", m)
	}
}

func TestDecode_ParentViewportMetricsPartial(t *testing.T) {
	msg, err := Decode(map[string]any{
		"type":           "parentViewportMetrics",
		"viewportHeight": -4.0,
		"footerHeight":   90,
	})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	m := msg.(ParentViewportMetrics)
	if m.HasViewport {
		t.Error("Non-positive viewport should be dropped")
	}
	if !m.HasFooter || m.FooterHeight != 90 {
		t.Errorf("Footer should survive: %+v", m)
	}
}

func TestDecode_Rejects(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
		want error
	}{
		{"nil payload", nil, ErrMalformed},
		{"missing type", map[string]any{"height": 10.0}, ErrMalformed},
		{"non-string type", map[string]any{"type": 4.0}, ErrMalformed},
		{"unknown type", map[string]any{"type": "resizeEverything"}, ErrUnknownType},
		{"metrics without numbers", map[string]any{"type": "parentViewportMetrics", "viewportHeight": "tall"}, ErrMalformed},
		{"scroll ack without id", map[string]any{"type": "bubbleTutorialScrollComplete"}, ErrMalformed},
		{"bad navigation direction", map[string]any{"type": "requestChartNavigation", "direction": "up"}, ErrMalformed},
		{"bad tutorial state", map[string]any{"type": "bubbleTutorialState", "state": "half-open"}, ErrMalformed},
		{"content height zero", map[string]any{"type": "contentHeight", "height": 0.0}, ErrMalformed},
		{"update url params not a list", map[string]any{"type": "updateURL", "params": "year=2020"}, ErrMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.raw)
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestDecode_OpenTutorialDefaultsReason(t *testing.T) {
	msg, err := Decode(map[string]any{"type": "openBubbleTutorial"})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got := msg.(OpenBubbleTutorial).Reason; got != "parent" {
		t.Errorf("Expected default reason 'parent', got %q", got)
	}
}

func TestEncode_ContentHeight(t *testing.T) {
	got := Encode(ContentHeight{Chart: ChartName, Height: 944})
	want := map[string]any{"type": "contentHeight", "chart": "bubble", "height": 944}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Encode = %v, want %v", got, want)
	}
}

func TestDecodeJSON_UpdateURL(t *testing.T) {
	msg, err := DecodeJSON([]byte(`{"type":"updateURL","params":["pollutant_id=5","category_ids=1c,2","year=2021"]}`))
	if err != nil {
		t.Fatalf("DecodeJSON failed: %v", err)
	}
	u := msg.(UpdateURL)
	if len(u.Params) != 3 || u.Params[1] != "category_ids=1c,2" {
		t.Errorf("Unexpected params: %v", u.Params)
	}
}

func TestOutcome(t *testing.T) {
	if !DeliveredOutcome().OK() {
		t.Error("Delivered outcome should be OK")
	}
	blocked := BlockedOutcome(errors.New("cross-origin"))
	if blocked.OK() {
		t.Error("Blocked outcome should not be OK")
	}
	if blocked.Status.String() != "blocked" {
		t.Errorf("Unexpected status string %q", blocked.Status)
	}
}
