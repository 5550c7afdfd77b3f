package relay

// ScopeType identifies the kind of connection a Scope describes.
//
// See RFC-less convention: the gateway (the host runtime embedding this
// framework) delivers exactly one Scope per connection, and the Scope's
// Type never changes for the lifetime of that connection.
type ScopeType string

// Recognized scope types.
const (
	ScopeHTTP      ScopeType = "http"
	ScopeWebSocket ScopeType = "websocket"
	ScopeLifespan  ScopeType = "lifespan"
)

// HeaderPair is a single raw header as delivered by the gateway: both the
// name and the value are kept as bytes because the gateway speaks in bytes,
// not strings.
type HeaderPair struct {
	Name  []byte
	Value []byte
}

// Address is a (host, port) pair, used for Scope.Client and Scope.Server.
type Address struct {
	Host string
	Port int
}

// Scope is the per-connection metadata mapping delivered by the gateway.
//
// The core never constructs a Scope for a live connection; it only reads
// one handed to it by the gateway, and writes back App, Endpoint and
// PathParams during dispatch.
type Scope struct {
	Type        ScopeType
	Path        string
	Headers     []HeaderPair
	QueryString []byte

	Method     string
	Client     *Address
	Server     *Address
	Scheme     string
	HTTPVersion string
	RootPath   string

	// State is the gateway-provided state mapping. It is nil unless the
	// gateway advertises state support; the Lifespan coordinator writes
	// into it during startup.
	State map[string]interface{}

	// App is set by the Application at the start of dispatch.
	App interface{}

	// Endpoint is set by the Application once a route has been chosen.
	Endpoint interface{}

	// PathParams holds the decoded path parameter values produced by the
	// route that matched this scope.
	PathParams map[string]interface{}
}

// Message is a single inbound or outbound gateway message. Which fields are
// populated depends on Type.
type Message struct {
	Type string

	// HTTP messages.
	Body       []byte
	MoreBody   bool
	Status     int
	HTTPHeaders []HeaderPair

	// WebSocket messages.
	Text         *string
	Bytes        []byte
	Code         int
	Reason       string
	Subprotocol  *string
	WSHeaders    []HeaderPair

	// Lifespan messages.
	FailureMessage string
}

// Receive pulls the next inbound gateway message, blocking until one is
// available. It is the only suspension point for reading from the gateway.
type Receive func() (Message, error)

// Send pushes one outbound gateway message. It is the only suspension point
// for writing to the gateway.
type Send func(Message) error
