package plan

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// SelectionSyntaxError is returned for a malformed selection token.
type SelectionSyntaxError struct {
	Token  string
	Reason string
}

func (e *SelectionSyntaxError) Error() string {
	return fmt.Sprintf("invalid page selection %q: %s", e.Token, e.Reason)
}

// Selection is a set of 1-based page indices kept as sorted, disjoint ranges.
// The zero value selects all pages.
type Selection struct {
	spans []span
}

// span is an inclusive index range.
type span struct {
	start, end int
}

// NewSelection creates a Selection from explicit indices. Duplicates collapse.
func NewSelection(indices ...int) Selection {
	spans := make([]span, 0, len(indices))
	for _, i := range indices {
		spans = append(spans, span{i, i})
	}
	return Selection{spans: merge(spans)}
}

// merge sorts spans and joins the overlapping or adjacent ones.
func merge(spans []span) []span {
	if len(spans) == 0 {
		return nil
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	out := []span{spans[0]}
	for _, sp := range spans[1:] {
		last := &out[len(out)-1]
		if sp.start <= last.end+1 {
			last.end = max(last.end, sp.end)
			continue
		}
		out = append(out, sp)
	}
	return out
}

// IsAll reports whether the selection is empty, meaning every page.
func (s Selection) IsAll() bool {
	return len(s.spans) == 0
}

// Len returns the number of distinct selected indices.
func (s Selection) Len() int {
	n := 0
	for _, sp := range s.spans {
		n += sp.end - sp.start + 1
	}
	return n
}

// Indices returns the selected indices in ascending order. Callers bound the
// selection first; see Build.
func (s Selection) Indices() []int {
	out := make([]int, 0, s.Len())
	for _, sp := range s.spans {
		for i := sp.start; i <= sp.end; i++ {
			out = append(out, i)
		}
	}
	return out
}

// firstOutside returns the smallest selected index outside 1..n.
func (s Selection) firstOutside(n int) (int, bool) {
	if len(s.spans) == 0 {
		return 0, false
	}
	if first := s.spans[0].start; first < 1 {
		return first, true
	}
	for _, sp := range s.spans {
		if sp.end > n {
			return max(sp.start, n+1), true
		}
	}
	return 0, false
}

// ParseSelection parses the range-list notation, e.g. "1,3-5,7".
//
// Whitespace is ignored. Each comma-separated token is either a positive
// integer or two positive integers joined by a hyphen, start <= end. An
// empty or blank text yields the empty selection. Empty tokens ("1,,2")
// are skipped.
//
// Returns *SelectionSyntaxError for any other token.
func ParseSelection(text string) (Selection, error) {
	text = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, text)

	if text == "" {
		return Selection{}, nil
	}

	var spans []span

	for _, token := range strings.Split(text, ",") {
		if token == "" {
			continue
		}

		startText, endText, isRange := strings.Cut(token, "-")
		start, err := parseIndex(token, startText)
		if err != nil {
			return Selection{}, err
		}
		if !isRange {
			spans = append(spans, span{start, start})
			continue
		}

		end, err := parseIndex(token, endText)
		if err != nil {
			return Selection{}, err
		}
		if start > end {
			return Selection{}, &SelectionSyntaxError{Token: token, Reason: "range start is greater than end"}
		}
		spans = append(spans, span{start, end})
	}

	return Selection{spans: merge(spans)}, nil
}

func parseIndex(token, s string) (int, error) {
	if s == "" {
		return 0, &SelectionSyntaxError{Token: token, Reason: "missing page number"}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, &SelectionSyntaxError{Token: token, Reason: "not a number"}
	}
	if n < 1 {
		return 0, &SelectionSyntaxError{Token: token, Reason: "page numbers start at 1"}
	}
	return n, nil
}

func (s Selection) String() string {
	if s.IsAll() {
		return "all"
	}
	parts := make([]string, 0, len(s.spans))
	for _, sp := range s.spans {
		if sp.start == sp.end {
			parts = append(parts, strconv.Itoa(sp.start))
		} else {
			parts = append(parts, fmt.Sprintf("%d-%d", sp.start, sp.end))
		}
	}
	return strings.Join(parts, ",")
}
