package lts

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// internalName is the CADP spelling of the silent action.
const internalName = "i"

// ReadAut parses a system in Aldebaran format:
//
//	des (initial, #transitions, #states)
//	(from, "label", to)
//
// Labels may be quoted or bare. Both "tau" and "i" denote the silent action.
func ReadAut(r io.Reader) (*LTS, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	line := 0
	var l *LTS
	declared := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		if l == nil {
			initial, numTransitions, numStates, err := parseAutHeader(text)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			l = NewWithCapacity(numStates, numTransitions)
			if err := l.SetInitialState(initial); err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			declared = numTransitions
			continue
		}

		from, label, to, err := parseAutTransition(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if label == internalName {
			label = TauName
		}
		if err := l.AddNamedTransition(from, label, to); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if l == nil {
		return nil, fmt.Errorf("missing des header: %w", ErrMalformedAut)
	}
	if l.NumTransitions() != declared {
		return nil, fmt.Errorf("header declares %d transitions, found %d: %w", declared, l.NumTransitions(), ErrMalformedAut)
	}
	return l, nil
}

func parseAutHeader(text string) (initial, numTransitions, numStates int, err error) {
	rest, ok := strings.CutPrefix(text, "des")
	if !ok {
		return 0, 0, 0, fmt.Errorf("expected des header: %w", ErrMalformedAut)
	}
	inner, ok := parenthesized(rest)
	if !ok {
		return 0, 0, 0, fmt.Errorf("des header without parentheses: %w", ErrMalformedAut)
	}
	fields := strings.Split(inner, ",")
	if len(fields) != 3 {
		return 0, 0, 0, fmt.Errorf("des header needs three fields: %w", ErrMalformedAut)
	}
	var values [3]int
	for i, f := range fields {
		v, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil || v < 0 {
			return 0, 0, 0, fmt.Errorf("des header field %q: %w", f, ErrMalformedAut)
		}
		values[i] = v
	}
	if values[2] == 0 {
		return 0, 0, 0, fmt.Errorf("des header declares no states: %w", ErrMalformedAut)
	}
	return values[0], values[1], values[2], nil
}

func parseAutTransition(text string) (from int, label string, to int, err error) {
	inner, ok := parenthesized(text)
	if !ok {
		return 0, "", 0, fmt.Errorf("transition %q without parentheses: %w", text, ErrMalformedAut)
	}
	first := strings.IndexByte(inner, ',')
	last := strings.LastIndexByte(inner, ',')
	if first < 0 || first == last {
		return 0, "", 0, fmt.Errorf("transition %q needs three fields: %w", text, ErrMalformedAut)
	}
	from, err = strconv.Atoi(strings.TrimSpace(inner[:first]))
	if err != nil {
		return 0, "", 0, fmt.Errorf("transition source in %q: %w", text, ErrMalformedAut)
	}
	to, err = strconv.Atoi(strings.TrimSpace(inner[last+1:]))
	if err != nil {
		return 0, "", 0, fmt.Errorf("transition target in %q: %w", text, ErrMalformedAut)
	}
	label = strings.TrimSpace(inner[first+1 : last])
	if len(label) >= 2 && label[0] == '"' && label[len(label)-1] == '"' {
		label = label[1 : len(label)-1]
	}
	return from, label, to, nil
}

func parenthesized(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if len(text) < 2 || text[0] != '(' || text[len(text)-1] != ')' {
		return "", false
	}
	return text[1 : len(text)-1], true
}

// WriteAut writes l in Aldebaran format. All labels are quoted.
func WriteAut(w io.Writer, l *LTS) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "des (%d,%d,%d)\n", l.initial, len(l.transitions), l.numStates); err != nil {
		return err
	}
	for _, t := range l.transitions {
		if _, err := fmt.Fprintf(bw, "(%d,\"%s\",%d)\n", t.From, l.labels[t.Label], t.To); err != nil {
			return err
		}
	}
	return bw.Flush()
}
