package chunking

// Splitter runs the heading split followed by the size-bounded split.
type Splitter struct {
	plan Plan
}

func NewSplitter(plan Plan) (*Splitter, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	return &Splitter{plan: plan}, nil
}

// Split returns chunks in document order. Every chunk text is at most
// ChunkSize runes and carries a copy of its section's heading path.
func (s *Splitter) Split(text string) []Chunk {
	var chunks []Chunk
	for _, section := range SplitHeaders(text, s.plan.headerLevels()) {
		for _, window := range SplitRecursive(section.Text, s.plan.ChunkSize, s.plan.ChunkOverlap, s.plan.separators()) {
			meta := make(map[string]string, len(section.Metadata))
			for k, v := range section.Metadata {
				meta[k] = v
			}
			chunks = append(chunks, Chunk{Text: window, Metadata: meta, Index: len(chunks)})
		}
	}
	return chunks
}
