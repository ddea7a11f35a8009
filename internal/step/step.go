// Package step defines the recorded interaction step and its geometry types.
package step

import (
	"fmt"

	"github.com/google/uuid"
)

// EventType identifies the kind of input event that produced a step.
type EventType string

const (
	EventLeftClick  EventType = "Left Click"
	EventRightClick EventType = "Right Click"
)

// Point is a position in screen coordinates.
type Point struct {
	X int `json:"X"`
	Y int `json:"Y"`
}

func (p Point) String() string {
	return fmt.Sprintf("(%d, %d)", p.X, p.Y)
}

// Rect is a rectangle in screen coordinates.
type Rect struct {
	Left   int `json:"Left"`
	Top    int `json:"Top"`
	Right  int `json:"Right"`
	Bottom int `json:"Bottom"`
}

// Width returns the horizontal extent of the rectangle.
func (r Rect) Width() int {
	return r.Right - r.Left
}

// Height returns the vertical extent of the rectangle.
func (r Rect) Height() int {
	return r.Bottom - r.Top
}

func (r Rect) String() string {
	return fmt.Sprintf("(%d, %d, %d, %d)", r.Left, r.Top, r.Right, r.Bottom)
}

// Size is a width/height pair in pixels.
type Size struct {
	Width  int `json:"Width"`
	Height int `json:"Height"`
}

func (s Size) String() string {
	return fmt.Sprintf("(%d, %d)", s.Width, s.Height)
}

// Step is one recorded user interaction plus its context. The JSON field
// names match the archive records written by earlier releases so existing
// project files stay loadable.
type Step struct {
	// ID is the stable identity key. It is assigned at creation and
	// survives reordering, editing and reload.
	ID uuid.UUID `json:"ID"`

	// Number is the 1-based position in the ledger. It is recomputed from
	// list order after every mutation and is only used for display and
	// sorting, never as an identity key.
	Number int `json:"Step"`

	CreationTime Timestamp `json:"CreationTime"`

	WindowTitle     string `json:"WindowTitle,omitempty"`
	ApplicationName string `json:"ApplicationName,omitempty"`

	WindowRect  Rect `json:"WindowCoordinates"`
	WindowSize  Size `json:"WindowSize"`
	ElementRect Rect `json:"UICoordinates"`
	ElementSize Size `json:"UISize"`

	ElementName string `json:"ElementName,omitempty"`
	ElementType string `json:"ElementType,omitempty"`

	MousePosition Point     `json:"MouseCoordinates"`
	EventType     EventType `json:"EventType,omitempty"`

	// Screenshot holds the PNG payload, or nil if capture failed.
	// encoding/json transports it as a base64 string.
	Screenshot []byte `json:"Screenshotb64,omitempty"`

	// Text is the user-editable narrative description.
	Text string `json:"_StepText,omitempty"`
}

// New creates a step with a fresh identity and creation timestamp.
func New() *Step {
	return &Step{
		ID:           uuid.New(),
		CreationTime: Now(),
	}
}

// Clone returns a copy of the step. The screenshot bytes are shared; they
// are never modified after capture.
func (s *Step) Clone() *Step {
	cp := *s
	return &cp
}

// DefaultText builds the initial narrative for a freshly captured step.
func DefaultText(applicationName string, eventType EventType, elementType, elementName string) string {
	return fmt.Sprintf("In %s, %s on %s %s", applicationName, eventType, elementType, elementName)
}

// String renders the list display form.
func (s *Step) String() string {
	return fmt.Sprintf("%d: %s", s.Number, s.Text)
}
