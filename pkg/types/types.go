package types

// Passage is a single retrievable code snippet. Filename and Language come
// from the best-effort fence header in the source document and may be empty.
type Passage struct {
	Content  string
	Filename string
	Language string
}

// Example is one relevance record: a natural-language query and the ordered
// set of passages the dataset declares relevant to it.
type Example struct {
	Query    string
	Passages []Passage
}

// RelevantSet returns the contents of the example's relevant passages,
// preserving dataset order.
func (e *Example) RelevantSet() []string {
	set := make([]string, len(e.Passages))
	for i, p := range e.Passages {
		set[i] = p.Content
	}
	return set
}

// Dataset is an ordered sequence of examples, loaded once and read-only for
// the rest of the pipeline.
type Dataset struct {
	Examples []Example
}

// Corpus returns every passage content in the dataset, deduplicated,
// in first-seen order. This is the retrieval corpus for evaluation.
func (d *Dataset) Corpus() []string {
	seen := make(map[string]struct{})
	corpus := make([]string, 0, len(d.Examples)*2)
	for _, ex := range d.Examples {
		for _, p := range ex.Passages {
			if _, ok := seen[p.Content]; ok {
				continue
			}
			seen[p.Content] = struct{}{}
			corpus = append(corpus, p.Content)
		}
	}
	return corpus
}

// TrainingPair is a labeled (query, passage) example. Label is 1 when the
// passage belongs to the query's relevant set, 0 when it was sampled from
// another example's relevant set.
type TrainingPair struct {
	Query   string
	Passage string
	Label   float64
}

// ScoredPassage is one entry of a ranked retrieval result.
type ScoredPassage struct {
	Passage string
	Score   float64
}

// EpochStats records the loss curve for a single training epoch. The trainer
// returns one of these per epoch instead of accumulating metrics in shared
// state.
type EpochStats struct {
	Epoch     int
	TrainLoss float64
	ValLoss   float64
}
