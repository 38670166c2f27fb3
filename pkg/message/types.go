// Package message models the cross-frame protocol spoken between the widget
// and the page hosting its iframe.
//
// Every message is a concrete Go type implementing Message. Payloads coming
// from the other side of the frame boundary go through Decode, which rejects
// unknown types and malformed fields instead of trusting field presence.
package message

// Type is the discriminator carried in the "type" field of every message.
type Type string

// Parent -> widget.
const (
	TypeParentViewportMetrics        Type = "parentViewportMetrics"
	TypeRequestHeight                Type = "requestHeight"
	TypeOverlayHidden                Type = "overlayHidden"
	TypeOpenBubbleTutorial           Type = "openBubbleTutorial"
	TypeBubbleTutorialScrollComplete Type = "bubbleTutorialScrollComplete"
)

// Widget -> parent.
const (
	TypeContentHeight          Type = "contentHeight"
	TypeChartReady             Type = "chartReady"
	TypeUpdateURL              Type = "updateURL"
	TypeRequestChartNavigation Type = "requestChartNavigation"
	TypeScrollToBubbleTutorial Type = "scrollToBubbleTutorial"
	TypeBubbleTutorialState    Type = "bubbleTutorialState"
)

// ChartName identifies this widget in outbound messages.
const ChartName = "bubble"

// Message is implemented by every protocol message.
type Message interface {
	Type() Type
}

// ParentViewportMetrics carries the host viewport and footer heights. Either
// field may be absent; at least one is present after a successful Decode.
type ParentViewportMetrics struct {
	ViewportHeight float64
	FooterHeight   float64
	HasViewport    bool
	HasFooter      bool
}

// RequestHeight asks the widget to re-measure and re-send its height.
type RequestHeight struct{}

// OverlayHidden tells the widget the host finished an overlay transition.
type OverlayHidden struct{}

// OpenBubbleTutorial asks the widget to open its tutorial overlay.
type OpenBubbleTutorial struct {
	Reason string
}

// BubbleTutorialScrollComplete acknowledges a ScrollToBubbleTutorial request.
type BubbleTutorialScrollComplete struct {
	RequestID string
}

// ContentHeight reports the rendered content height of the widget.
type ContentHeight struct {
	Chart  string
	Height int
}

// ChartReady is sent once when the first render has settled.
type ChartReady struct {
	Chart string
}

// UpdateURL asks the host to mirror the widget's query parameters.
type UpdateURL struct {
	Params []string
}

// Navigation directions.
const (
	DirectionNext     = "next"
	DirectionPrevious = "previous"
)

// RequestChartNavigation forwards arrow-key navigation to the host.
type RequestChartNavigation struct {
	Direction string
	Source    string
}

// ScrollToBubbleTutorial asks the host to scroll the iframe into view.
type ScrollToBubbleTutorial struct {
	RequestID string
}

// Tutorial states.
const (
	TutorialOpened = "opened"
	TutorialClosed = "closed"
)

// BubbleTutorialState notifies the host that the tutorial opened or closed.
type BubbleTutorialState struct {
	State  string
	Source string
}

func (ParentViewportMetrics) Type() Type        { return TypeParentViewportMetrics }
func (RequestHeight) Type() Type                { return TypeRequestHeight }
func (OverlayHidden) Type() Type                { return TypeOverlayHidden }
func (OpenBubbleTutorial) Type() Type           { return TypeOpenBubbleTutorial }
func (BubbleTutorialScrollComplete) Type() Type { return TypeBubbleTutorialScrollComplete }
func (ContentHeight) Type() Type                { return TypeContentHeight }
func (ChartReady) Type() Type                   { return TypeChartReady }
func (UpdateURL) Type() Type                    { return TypeUpdateURL }
func (RequestChartNavigation) Type() Type       { return TypeRequestChartNavigation }
func (ScrollToBubbleTutorial) Type() Type       { return TypeScrollToBubbleTutorial }
func (BubbleTutorialState) Type() Type          { return TypeBubbleTutorialState }
