package builder

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/flowkit-dev/flowkit/pkg/models"
	"github.com/flowkit-dev/flowkit/pkg/parser"
)

// Default size thresholds. Soft thresholds warn, hard thresholds make Build
// fail. Complexity is node count plus total connection count.
const (
	DefaultSoftNodeLimit       = 50
	DefaultHardNodeLimit       = 200
	DefaultSoftComplexityLimit = 120
	DefaultHardComplexityLimit = 500
)

// Grid parameters for auto-assigned node positions. Fixed steps keep
// repeated builds from equivalent instructions positionally reproducible,
// which matters for diff stability downstream.
const (
	gridStartX = 250
	gridStepX  = 200
	gridY      = 300
)

// Limits holds the configurable size thresholds enforced by Build.
type Limits struct {
	SoftNodes      int
	HardNodes      int
	SoftComplexity int
	HardComplexity int
}

// DefaultLimits returns the default size thresholds.
func DefaultLimits() Limits {
	return Limits{
		SoftNodes:      DefaultSoftNodeLimit,
		HardNodes:      DefaultHardNodeLimit,
		SoftComplexity: DefaultSoftComplexityLimit,
		HardComplexity: DefaultHardComplexityLimit,
	}
}

// Builder incrementally assembles a workflow document. A Builder is meant
// for one logical workflow built by one goroutine; it is not safe for
// concurrent use by multiple callers.
type Builder struct {
	name       string
	workflowID string
	versionID  string
	createdAt  time.Time

	nodes       []models.Node
	nodeNames   map[string]struct{}
	connections []models.Connection
	settings    map[string]any
	tags        []string
	warnings    []string
	limits      Limits
	autoPlaced  int
	logger      *slog.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithLimits overrides the default size thresholds.
func WithLimits(limits Limits) Option {
	return func(b *Builder) { b.limits = limits }
}

// WithSettings sets the document-level settings object.
func WithSettings(settings map[string]any) Option {
	return func(b *Builder) { b.settings = settings }
}

// WithTags sets the document tags.
func WithTags(tags ...string) Option {
	return func(b *Builder) { b.tags = tags }
}

// WithLogger sets the logger used for dedup and size warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) { b.logger = logger }
}

// New creates a Builder for a workflow with the given name. The workflow and
// version identity fields are generated here, once, and stay stable across
// repeated Build calls on the same instance.
func New(name string, opts ...Option) *Builder {
	b := &Builder{
		name:       name,
		workflowID: uuid.New().String(),
		versionID:  uuid.New().String(),
		createdAt:  time.Now().UTC(),
		nodeNames:  make(map[string]struct{}),
		settings:   map[string]any{},
		limits:     DefaultLimits(),
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// nodeConfig wraps a node under construction so options can record whether
// an explicit position was given.
type nodeConfig struct {
	node       models.Node
	positioned bool
}

// NodeOption configures a node added to the builder.
type NodeOption func(*nodeConfig)

// WithParameters sets the node parameters.
func WithParameters(params map[string]any) NodeOption {
	return func(c *nodeConfig) { c.node.Parameters = params }
}

// WithCredentials attaches credential references to the node. The builder
// stores them verbatim.
func WithCredentials(credentials map[string]models.CredentialRef) NodeOption {
	return func(c *nodeConfig) { c.node.Credentials = credentials }
}

// WithPosition pins the node to an explicit canvas position instead of the
// deterministic grid.
func WithPosition(x, y float64) NodeOption {
	return func(c *nodeConfig) {
		c.node.Position = [2]float64{x, y}
		c.positioned = true
	}
}

// WithTypeVersion sets the node type version (default 1).
func WithTypeVersion(v int) NodeOption {
	return func(c *nodeConfig) { c.node.TypeVersion = v }
}

// WithDisabled marks the node disabled.
func WithDisabled() NodeOption {
	return func(c *nodeConfig) { c.node.Disabled = true }
}

// WithNotes attaches free-form notes to the node.
func WithNotes(notes string) NodeOption {
	return func(c *nodeConfig) { c.node.Notes = notes }
}

// AddNode adds a node and returns the name it was stored under. Name
// collisions are resolved by appending an incrementing integer suffix
// ("Action", "Action1", "Action2", ...) with a warning; this is a policy,
// not a failure. Callers that need exact names must pre-check uniqueness.
func (b *Builder) AddNode(name, nodeType string, opts ...NodeOption) string {
	cfg := nodeConfig{node: models.Node{
		ID:          uuid.New().String(),
		Name:        b.dedupName(name),
		Type:        nodeType,
		TypeVersion: 1,
		Parameters:  map[string]any{},
	}}

	for _, opt := range opts {
		opt(&cfg)
	}

	if !cfg.positioned {
		cfg.node.Position = b.nextGridPosition()
	}

	b.nodes = append(b.nodes, cfg.node)
	b.nodeNames[cfg.node.Name] = struct{}{}

	return cfg.node.Name
}

// AddTrigger adds a trigger node. It behaves exactly like AddNode; the
// separate method keeps construction code intent-revealing and lets Build
// warn when a workflow has no trigger at all.
func (b *Builder) AddTrigger(name, triggerType string, opts ...NodeOption) string {
	return b.AddNode(name, triggerType, opts...)
}

func (b *Builder) dedupName(name string) string {
	if _, taken := b.nodeNames[name]; !taken {
		return name
	}

	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s%d", name, i)
		if _, taken := b.nodeNames[candidate]; !taken {
			b.warn("node name %q already in use, stored as %q", name, candidate)

			return candidate
		}
	}
}

func (b *Builder) nextGridPosition() [2]float64 {
	pos := [2]float64{float64(gridStartX + gridStepX*b.autoPlaced), gridY}
	b.autoPlaced++

	return pos
}

// ConnectOption configures a connection.
type ConnectOption func(*models.Connection)

// WithSourceOutput selects the source output slot (default 0).
func WithSourceOutput(index int) ConnectOption {
	return func(c *models.Connection) { c.SourceOutput = index }
}

// WithTargetInput selects the target input slot (default 0).
func WithTargetInput(index int) ConnectOption {
	return func(c *models.Connection) { c.TargetInput = index }
}

// WithConnectionType overrides the connection type (default "main").
func WithConnectionType(connType string) ConnectOption {
	return func(c *models.Connection) { c.ConnectionType = connType }
}

// Connect adds an edge between two previously added nodes. Referencing an
// unknown name or connecting a node to itself is an immediate error.
func (b *Builder) Connect(source, target string, opts ...ConnectOption) error {
	if _, ok := b.nodeNames[source]; !ok {
		return fmt.Errorf("connect %q -> %q: source: %w", source, target, ErrUnknownNode)
	}

	if _, ok := b.nodeNames[target]; !ok {
		return fmt.Errorf("connect %q -> %q: target: %w", source, target, ErrUnknownNode)
	}

	if source == target {
		return fmt.Errorf("connect %q -> %q: %w", source, target, ErrSelfConnection)
	}

	conn := models.Connection{
		SourceNode:     source,
		TargetNode:     target,
		ConnectionType: models.DefaultConnectionType,
	}

	for _, opt := range opts {
		opt(&conn)
	}

	b.connections = append(b.connections, conn)

	return nil
}

// ConnectChain connects the named nodes sequentially: a -> b -> c.
func (b *Builder) ConnectChain(names ...string) error {
	for i := 0; i+1 < len(names); i++ {
		if err := b.Connect(names[i], names[i+1]); err != nil {
			return err
		}
	}

	return nil
}

// Warnings returns the warnings accumulated so far (name dedups, soft size
// threshold crossings).
func (b *Builder) Warnings() []string {
	out := make([]string, len(b.warnings))
	copy(out, b.warnings)

	return out
}

// WorkflowID returns the stable workflow identity generated at construction.
func (b *Builder) WorkflowID() string { return b.workflowID }

// Build assembles the workflow document. When validate is true it enforces
// the size thresholds: crossing a soft threshold records a warning, crossing
// a hard threshold fails with a SizeLimitError. Build is idempotent with
// respect to identity: repeated calls return the same workflow and version
// IDs.
func (b *Builder) Build(validate bool) (*models.Workflow, error) {
	if validate {
		if err := b.checkSize(); err != nil {
			return nil, err
		}

		if !b.hasTrigger() {
			b.warn("workflow %q has no trigger node", b.name)
		}
	}

	connections := make(models.ConnectionMap)
	for _, conn := range b.connections {
		connections.Add(conn)
	}

	nodes := make([]models.Node, len(b.nodes))
	copy(nodes, b.nodes)

	wf := &models.Workflow{
		ID:          b.workflowID,
		Name:        b.name,
		Nodes:       nodes,
		Connections: connections,
		Settings:    b.settings,
		Meta:        map[string]any{},
		VersionID:   b.versionID,
		CreatedAt:   b.createdAt.Format(time.RFC3339),
		UpdatedAt:   time.Now().UTC().Format(time.RFC3339),
		Tags:        b.tags,
	}

	return wf, nil
}

func (b *Builder) checkSize() error {
	nodeCount := len(b.nodes)
	complexity := nodeCount + len(b.connections)

	if b.limits.HardNodes > 0 && nodeCount > b.limits.HardNodes {
		return &SizeLimitError{Metric: "node count", Limit: b.limits.HardNodes, Actual: nodeCount}
	}

	if b.limits.HardComplexity > 0 && complexity > b.limits.HardComplexity {
		return &SizeLimitError{Metric: "complexity", Limit: b.limits.HardComplexity, Actual: complexity}
	}

	if b.limits.SoftNodes > 0 && nodeCount > b.limits.SoftNodes {
		b.warn("node count %d exceeds soft limit %d", nodeCount, b.limits.SoftNodes)
	}

	if b.limits.SoftComplexity > 0 && complexity > b.limits.SoftComplexity {
		b.warn("complexity %d exceeds soft limit %d", complexity, b.limits.SoftComplexity)
	}

	return nil
}

func (b *Builder) hasTrigger() bool {
	for i := range b.nodes {
		if parser.IsTriggerType(b.nodes[i].Type) {
			return true
		}
	}

	return false
}

func (b *Builder) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	b.warnings = append(b.warnings, msg)
	b.logger.Warn(msg, "workflow", b.name)
}
