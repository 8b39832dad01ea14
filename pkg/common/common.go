package common

// EntityRef is a reference to a shared, uniquely keyed entity
// (product, category, component, label) nested inside an incident record.
type EntityRef struct {
	ID   string `json:"id" validate:"required"`
	Name string `json:"name"`
}

// PersonRef identifies a person by account id. A person may appear as
// reporter on one incident and assignee on another; both resolve to the
// same graph node.
type PersonRef struct {
	AccountID   string `json:"account_id" validate:"required"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

// ChannelRef is the optional communication channel attached to an incident.
type ChannelRef struct {
	ID  string `json:"id" validate:"required"`
	URL string `json:"url"`
}

// PassageRecord is a free-text chunk belonging to exactly one incident.
// Passages are the retrievable unit for similarity search.
type PassageRecord struct {
	ID         string `json:"id" validate:"required"`
	SourceType string `json:"source_type"`
	SourceID   string `json:"source_id"`
	Text       string `json:"text"`
	Created    string `json:"created"`
	URL        string `json:"url"`
}

// IncidentRecord is one element of an ingest batch. Scalar attributes are
// written with overwrite semantics; nested references are upserted by their
// unique keys.
type IncidentRecord struct {
	ID              string `json:"id" validate:"required"`
	Key             string `json:"key" validate:"required"`
	Type            string `json:"type"`
	Status          string `json:"status"`
	Resolution      string `json:"resolution"`
	Severity        string `json:"severity"`
	Impact          string `json:"impact"`
	EnvType         string `json:"env_type"`
	CustomerEnv     string `json:"customer_env"`
	EventStart      string `json:"event_start"`
	EventEnd        string `json:"event_end"`
	EventDurationMs int64  `json:"event_duration_ms"`
	Summary         string `json:"summary"`
	Created         string `json:"created"`
	Updated         string `json:"updated"`
	URL             string `json:"url"`

	Product  *EntityRef `json:"product" validate:"required"`
	Category *EntityRef `json:"category" validate:"required"`
	Reporter *PersonRef `json:"reporter" validate:"required"`
	Assignee *PersonRef `json:"assignee" validate:"required"`

	Components []EntityRef     `json:"components" validate:"dive"`
	Labels     []EntityRef     `json:"labels" validate:"dive"`
	Channel    *ChannelRef     `json:"channel,omitempty"`
	Passages   []PassageRecord `json:"passages" validate:"dive"`

	// Clones holds the human-readable key of the incident this one clones.
	// Empty means no clone relationship.
	Clones string `json:"clones,omitempty"`
}

// RejectedRecord describes an incident record that failed validation and
// was skipped during ingestion.
type RejectedRecord struct {
	ID     string `json:"id"`
	Key    string `json:"key"`
	Reason string `json:"reason"`
}

// IngestSummary reports the outcome of one ingest batch. Created counters
// stay zero on a re-run of an already merged batch; PropertiesSet shows
// that the merge still wrote attributes.
type IngestSummary struct {
	IncidentsProcessed int              `json:"incidents_processed"`
	NodesCreated       int64            `json:"nodes_created"`
	RelationsCreated   int64            `json:"relations_created"`
	PropertiesSet      int64            `json:"properties_set"`
	Rejected           []RejectedRecord `json:"rejected,omitempty"`
}

// IndexSummary reports the outcome of one embedding index run.
type IndexSummary struct {
	PassagesIndexed int  `json:"passages_indexed"`
	Batches         int  `json:"batches"`
	Dimensions      int  `json:"dimensions"`
	IndexEnsured    bool `json:"index_ensured"`
}
