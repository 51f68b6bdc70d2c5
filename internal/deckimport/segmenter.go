package deckimport

// Segmented is the result of grouping tokenized lines into categories.
type Segmented struct {
	Cards   []ParsedCardLine
	Headers []CategoryHeader
	Errors  []LineError
}

// segmentState is the accumulator threaded through Segment.
type segmentState struct {
	current Category
	out     Segmented
}

// Segment tags every card line with the category in effect when it was
// read. Headers only affect the lines after them; declared counts are
// recorded and never checked.
func Segment(lines []Line) Segmented {
	state := segmentState{
		current: CategoryMain,
		out: Segmented{
			Cards:   make([]ParsedCardLine, 0, len(lines)),
			Headers: make([]CategoryHeader, 0),
			Errors:  make([]LineError, 0),
		},
	}
	for _, line := range lines {
		state = state.step(line)
	}
	return state.out
}

func (s segmentState) step(line Line) segmentState {
	switch {
	case line.Err != nil:
		s.out.Errors = append(s.out.Errors, *line.Err)
	case line.Kind == KindHeader && line.Header != nil:
		s.current = line.Header.Category
		s.out.Headers = append(s.out.Headers, *line.Header)
	case line.Kind == KindCard && line.Card != nil:
		card := *line.Card
		card.Category = s.current
		s.out.Cards = append(s.out.Cards, card)
	}
	return s
}

// Parse tokenizes and segments text in one call.
func (t *Tokenizer) Parse(text string) Segmented {
	return Segment(t.Tokenize(text))
}
