package reconcile

// ActionType represents the kind of planned work for one product.
type ActionType string

const (
	// ActionPromote copies an existing catalog-referenced blob into the clean
	// namespace; the reference was valid, only the location was not.
	ActionPromote ActionType = "promote"
	// ActionAssociateNewest picks the most recently captured candidate blob for
	// a product with no valid catalog reference.
	ActionAssociateNewest ActionType = "associate_newest"
	// ActionNoCandidate marks a product with no image material at all; it is
	// left for the crawl step.
	ActionNoCandidate ActionType = "no_candidate"
)

// Action is a planned unit of work for a single product. Computed fresh on
// every planning run and consumed once by the executor.
type Action struct {
	// Type specifies the action to perform.
	Type ActionType `json:"type"`

	// ProductID is the catalog product this action belongs to.
	ProductID int64 `json:"product_id"`

	// SourceBlob is the blob to promote/associate. Empty for no_candidate.
	SourceBlob string `json:"source_blob,omitempty"`

	// DestBlob is the computed destination name under the clean prefix.
	// Empty for no_candidate.
	DestBlob string `json:"dest_blob,omitempty"`

	// RedundantBlobs are the product's other candidates, recorded for the
	// operator-reviewed delete list. The planner never deletes them.
	RedundantBlobs []string `json:"redundant_blobs,omitempty"`
}

// Plan is the planner's full output for one run.
type Plan struct {
	// Actions contains one entry per catalog product.
	Actions []Action `json:"actions"`

	// OrphanBlobs are source blobs with no determinable or catalog-known
	// product: unparsable unclaimed names, and candidates of products absent
	// from the catalog.
	OrphanBlobs []string `json:"orphan_blobs"`

	// Summary provides aggregate counts.
	Summary PlanSummary `json:"summary"`
}

// PlanSummary provides aggregate statistics for a plan.
type PlanSummary struct {
	// TotalProducts is the number of catalog products considered.
	TotalProducts int `json:"total_products"`

	// Promote counts products whose existing reference just moves to the clean
	// namespace.
	Promote int `json:"promote"`

	// AssociateNewest counts products assigned their newest candidate blob.
	AssociateNewest int `json:"associate_newest"`

	// NoCandidate counts products with nothing to assign.
	NoCandidate int `json:"no_candidate"`

	// RedundantBlobs counts non-canonical candidates across all products.
	RedundantBlobs int `json:"redundant_blobs"`

	// OrphanBlobs counts blobs routed to the orphan list.
	OrphanBlobs int `json:"orphan_blobs"`
}

// RedundantList flattens every action's redundant blobs into one sorted list
// for the delete-plan artifact.
func (p *Plan) RedundantList() []string {
	var names []string
	for _, a := range p.Actions {
		names = append(names, a.RedundantBlobs...)
	}
	return names
}
