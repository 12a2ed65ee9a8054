package figma

// Version is the exporter version reported by the CLI and the User-Agent header.
const Version = "0.3.0"

// FileResponse represents the response from the Figma file API endpoint.
// Only the document tree is consumed by the exporter.
type FileResponse struct {
	Name          string `json:"name"`
	LastModified  string `json:"lastModified"`
	Version       string `json:"version"`
	Document      Node   `json:"document"`
	SchemaVersion int    `json:"schemaVersion"`
}

// NodesResponse represents the response from the Figma nodes API endpoint when fetching specific nodes.
// A node that no longer exists is returned with a null value.
type NodesResponse struct {
	Name         string               `json:"name"`
	LastModified string               `json:"lastModified"`
	Version      string               `json:"version"`
	Nodes        map[string]*NodeData `json:"nodes"`
}

// NodeData wraps a node returned by the nodes endpoint.
type NodeData struct {
	Document Node `json:"document"`
}

// ImagesResponse is the response of the render endpoint: node id -> temporary download URL.
// A null URL means the node could not be rendered.
type ImagesResponse struct {
	Err    string            `json:"err"`
	Images map[string]string `json:"images"`
}

// Node represents a single element in the Figma document tree hierarchy.
// Only the properties that influence PDF export are decoded.
type Node struct {
	ID                      string               `json:"id"`
	Name                    string               `json:"name"`
	Type                    string               `json:"type"`
	Visible                 *bool                `json:"visible,omitempty"`
	Children                []Node               `json:"children,omitempty"`
	Fills                   []Paint              `json:"fills,omitempty"`
	Strokes                 []Paint              `json:"strokes,omitempty"`
	Effects                 []Effect             `json:"effects,omitempty"`
	BlendMode               string               `json:"blendMode,omitempty"`
	IsMask                  bool                 `json:"isMask,omitempty"`
	Characters              string               `json:"characters,omitempty"`
	Style                   *TypeStyle           `json:"style,omitempty"`
	CharacterStyleOverrides []int                `json:"characterStyleOverrides,omitempty"`
	StyleOverrideTable      map[string]TypeStyle `json:"styleOverrideTable,omitempty"`
	AbsoluteBoundingBox     *Rectangle           `json:"absoluteBoundingBox,omitempty"`
	TransitionNodeID        string               `json:"transitionNodeID,omitempty"`
	Interactions            []Interaction        `json:"interactions,omitempty"`
}

// IsVisible reports the node visibility; the API omits the field for visible nodes.
func (n *Node) IsVisible() bool {
	return n.Visible == nil || *n.Visible
}

// Color represents an RGBA color with float values ranging from 0 to 1.
type Color struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
	A float64 `json:"a"`
}

// Paint represents a fill or stroke applied to a Figma node.
type Paint struct {
	Type      string  `json:"type"`
	Visible   *bool   `json:"visible,omitempty"`
	Opacity   float64 `json:"opacity,omitempty"`
	BlendMode string  `json:"blendMode,omitempty"`
	Color     *Color  `json:"color,omitempty"`
	ImageRef  string  `json:"imageRef,omitempty"`
}

// IsVisible reports the paint visibility; the API omits the field for visible paints.
func (p Paint) IsVisible() bool {
	return p.Visible == nil || *p.Visible
}

// Effect represents a visual effect applied to a Figma node such as drop shadows, inner shadows, or blur effects.
type Effect struct {
	Type      string  `json:"type"`
	Visible   bool    `json:"visible"`
	Radius    float64 `json:"radius,omitempty"`
	Color     *Color  `json:"color,omitempty"`
	Offset    *Vector `json:"offset,omitempty"`
	Spread    float64 `json:"spread,omitempty"`
	BlendMode string  `json:"blendMode,omitempty"`
}

// Vector represents a 2D coordinate or offset with X and Y values.
type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// TypeStyle carries the text style properties relevant to export, the hyperlink in particular.
type TypeStyle struct {
	FontFamily string     `json:"fontFamily,omitempty"`
	FontSize   float64    `json:"fontSize,omitempty"`
	Hyperlink  *Hyperlink `json:"hyperlink,omitempty"`
}

// Hyperlink is a text link, either to an external URL or to another node of the file.
type Hyperlink struct {
	Type   string `json:"type"` // "URL" or "NODE"
	URL    string `json:"url,omitempty"`
	NodeID string `json:"nodeID,omitempty"`
}

// Interaction is a prototype trigger with its actions.
type Interaction struct {
	Trigger *Trigger `json:"trigger,omitempty"`
	Actions []Action `json:"actions,omitempty"`
}

// Trigger describes what starts an interaction (ON_CLICK, ON_HOVER, ...).
type Trigger struct {
	Type string `json:"type"`
}

// Action is a single prototype action. Navigation actions have Type "NODE"
// and a DestinationID; link actions have Type "URL".
type Action struct {
	Type          string `json:"type"`
	DestinationID string `json:"destinationId,omitempty"`
	Navigation    string `json:"navigation,omitempty"`
	URL           string `json:"url,omitempty"`
}

// Rectangle represents a bounding box with position (X, Y) and dimensions (Width, Height).
// Used to define the absolute position and size of nodes in the Figma canvas.
type Rectangle struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}
