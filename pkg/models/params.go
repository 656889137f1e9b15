package models

// Built-in activity identifiers. The activity id on a node selects both the
// parameter shape at decode time and the activity implementation at dispatch.
const (
	ActivityCtgan      = "ctgan"
	ActivityCustomCode = "custom-code"
	ActivityReport     = "report"
)

// ActivityParams is implemented by every typed activity parameter set. New
// activity kinds extend the union in decodeParams; they are never produced by
// conditional type conversion at dispatch time.
type ActivityParams interface {
	// SetNodeName stamps the executing node's key onto the params so the
	// activity can identify which node invoked it.
	SetNodeName(name string)
}

// CtganParams configures a CTGAN synthesizer training run.
type CtganParams struct {
	TargetTable     string   `json:"target_table"     validate:"required"`
	Epochs          int      `json:"epochs"           validate:"omitempty,min=1"`
	BatchSize       int      `json:"batch_size"       validate:"omitempty,min=1"`
	SampleRows      int      `json:"sample_rows"      validate:"omitempty,min=1"`
	DiscreteColumns []string `json:"discrete_columns"`
	NodeName        string   `json:"node_name,omitempty"`
}

func (p *CtganParams) SetNodeName(name string) {
	p.NodeName = name
}

// CustomCodeParams configures a user-supplied code activity.
type CustomCodeParams struct {
	Code         string   `json:"code"         validate:"required"`
	Language     string   `json:"language"     validate:"omitempty,oneof=python sql"`
	Requirements []string `json:"requirements"`
	InputTables  []string `json:"input_tables"`
	NodeName     string   `json:"node_name,omitempty"`
}

func (p *CustomCodeParams) SetNodeName(name string) {
	p.NodeName = name
}

// ReportParams configures a quality report activity.
type ReportParams struct {
	Title    string   `json:"title"`
	Sections []string `json:"sections"`
	Format   string   `json:"format" validate:"omitempty,oneof=html json"`
	NodeName string   `json:"node_name,omitempty"`
}

func (p *ReportParams) SetNodeName(name string) {
	p.NodeName = name
}

// RawParams carries the parameters of an activity id with no registered typed
// shape. The document round-trips untouched apart from the node name stamp.
type RawParams map[string]any

func (p RawParams) SetNodeName(name string) {
	p["node_name"] = name
}
