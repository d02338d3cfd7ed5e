package domain

// Extraction method tags recorded on ExtractedArtifact for auditability.
// Each value names the fallback strategy that recovered the artifact.
const (
	// MethodCLIJSON means the blob parsed as a single CLI JSON envelope and
	// the artifact came from its result/response field.
	MethodCLIJSON = "cli_json"

	// MethodEventStream means the blob was a line-delimited JSON event
	// stream and the artifact came from concatenated text events.
	MethodEventStream = "event_stream"

	// MethodPermissionDenials means the artifact was recovered from the
	// content of a denied write-tool invocation inside the envelope.
	MethodPermissionDenials = "permission_denials"

	// MethodFencedBlock means the artifact came from one or more fenced
	// code blocks in the unwrapped text.
	MethodFencedBlock = "fenced_block"

	// MethodHeuristic means a domain-specific plain-text scan located the
	// artifact (for example a bare FROM line or the first HCL keyword).
	MethodHeuristic = "heuristic"

	// MethodPlainText means the whole blob was taken as the artifact.
	MethodPlainText = "plain_text"

	// MethodNone is recorded when every strategy yielded empty content.
	MethodNone = "none"
)

// ArtifactFile is one named file of a multi-file artifact.
type ArtifactFile struct {
	// Name is the filename announced by the comment or heading that
	// preceded the file's code block ("stg_orders", "unnamed_1", ...).
	Name string `json:"name"`

	// Content is the file body exactly as extracted.
	Content string `json:"content"`
}

// ExtractedArtifact is the output of the extraction strategy chain: either a
// single text body or, for multi-file domains, an ordered list of named
// files. Order of Files is discovery order inside the raw blob.
type ExtractedArtifact struct {
	// Content is the single-file artifact body. Empty for multi-file
	// artifacts and for failed extractions.
	Content string `json:"content,omitempty"`

	// Files holds the multi-file artifact bodies in discovery order.
	// Nil for single-file domains.
	Files []ArtifactFile `json:"files,omitempty"`

	// Method records which fallback strategy produced the artifact.
	Method string `json:"extraction_method"`

	// Failed is set when no strategy yielded non-empty content. A failed
	// extraction is a normal, representable outcome, not an error.
	Failed bool `json:"extraction_failed"`

	// Error carries the extraction failure description written to the
	// ledger's extraction_error column. Empty on success.
	Error string `json:"extraction_error,omitempty"`
}

// File returns the content of the named file and whether it exists.
func (a ExtractedArtifact) File(name string) (string, bool) {
	for _, f := range a.Files {
		if f.Name == name {
			return f.Content, true
		}
	}
	return "", false
}

// FileNames returns the file names in discovery order.
func (a ExtractedArtifact) FileNames() []string {
	names := make([]string, 0, len(a.Files))
	for _, f := range a.Files {
		names = append(names, f.Name)
	}
	return names
}

// TokenUsage is the token accounting recovered from the wrapper envelope.
// All fields are zero when the envelope carries no usage block.
type TokenUsage struct {
	// InputTokens is the prompt token count.
	InputTokens int64 `json:"input_tokens"`

	// OutputTokens is the completion token count.
	OutputTokens int64 `json:"output_tokens"`

	// CacheReadTokens counts tokens served from the provider's prompt cache.
	CacheReadTokens int64 `json:"cache_read_tokens"`

	// CacheWriteTokens counts tokens written to the provider's prompt cache.
	CacheWriteTokens int64 `json:"cache_write_tokens"`

	// TotalCostUSD is the provider-reported cost of the call.
	TotalCostUSD float64 `json:"total_cost_usd"`
}
