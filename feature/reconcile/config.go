package reconcile

// Config holds configuration defaults for the reconciliation pipeline.
// CLI flags override every field.
type Config struct {
	// SourcePrefix is the raw crawl namespace to reconcile from.
	SourcePrefix string `mapstructure:"source_prefix" default:"thomann/"`
	// CleanPrefix is the namespace canonical images are consolidated into.
	CleanPrefix string `mapstructure:"clean_prefix" default:"images/"`
	// OutDir is where plan artifacts are written.
	OutDir string `mapstructure:"out_dir" default:"reports"`
	// Concurrency bounds the executor's parallel copies.
	Concurrency int `mapstructure:"concurrency" default:"8"`
	// RenameInClean re-timestamps destinations to the canonical naming even
	// when the source filename was non-conforming.
	RenameInClean bool `mapstructure:"rename_in_clean" default:"false"`
}
