package echarts

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/naei/bubblechart/internal/sim"
)

func TestBubbleSize(t *testing.T) {
	tests := []struct {
		pollution, max float64
		want           int
	}{
		{0, 10, MinBubble},
		{-1, 10, MinBubble},
		{10, 0, MinBubble},
		{10, 10, MaxBubble},
		{20, 10, MaxBubble},
		{2.5, 10, MinBubble + 26},
	}
	for _, tt := range tests {
		if got := BubbleSize(tt.pollution, tt.max); got != tt.want {
			t.Errorf("BubbleSize(%v, %v) = %d, want %d", tt.pollution, tt.max, got, tt.want)
		}
	}
}

func testData() *sim.Data {
	return sim.NewData(&sim.Dataset{
		ActivityUnit: "TJ",
		Pollutants:   []sim.Pollutant{{ID: 1, Name: "NOx", Unit: "kt"}},
		Categories:   []sim.CategoryRecord{{ID: 1, Name: "Road transport"}, {ID: 2, Name: "Rail"}},
		Values: []sim.Value{
			{Year: 2020, PollutantID: 1, CategoryID: 1, Pollution: 40, Activity: 800},
			{Year: 2020, PollutantID: 1, CategoryID: 2, Pollution: 5, Activity: 50},
		},
	})
}

func TestRenderer_DrawChart(t *testing.T) {
	r := NewRenderer(testData(), sim.NewColors())
	if err := r.DrawChart(context.Background(), 2020, 1, []int{1, 2}); err != nil {
		t.Fatalf("DrawChart: %v", err)
	}
	var buf bytes.Buffer
	if _, err := r.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	page := buf.String()
	for _, want := range []string{"Road transport", "Rail", "NOx emissions, 2020", sim.Palette[0]} {
		if !strings.Contains(page, want) {
			t.Errorf("Rendered page missing %q", want)
		}
	}
}

func TestRenderer_NoData(t *testing.T) {
	r := NewRenderer(testData(), nil)
	if err := r.DrawChart(context.Background(), 1999, 1, []int{1}); err == nil {
		t.Error("Expected error for a year without data")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := r.DrawChart(ctx, 2020, 1, []int{1}); err == nil {
		t.Error("Expected error for a cancelled context")
	}
}
