package compose

// Article is the composed article handed to the SEO and render stages.
// Produced once per run and not mutated afterwards.
type Article struct {
	Title      string
	Summary    string   // 1-2 sentences, never a prefix of the body
	Body       string   // plain-text paragraphs separated by blank lines
	Tips       []string // expert-tip sentences, may be empty on the fallback path
	Keywords   []string
	SourceLink string
}
