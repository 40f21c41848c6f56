// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"bytes"
	"encoding/json"
)

// OptionCount is the tally for one declared option
type OptionCount struct {
	Option string
	Count  int
}

// ResultView is the aggregate for a single poll. Exactly one of the three
// shapes is populated, depending on the poll type.
type ResultView struct {
	PollType string

	// choice and rating polls, in declared option order
	Options []OptionCount
	// word_cloud polls
	Words map[string]int
	// open_ended polls, in vote order
	Answers []string
}

// Count returns the tally for a declared option, or 0
func (r ResultView) Count(option string) int {
	for _, oc := range r.Options {
		if oc.Option == option {
			return oc.Count
		}
	}
	return 0
}

// MarshalJSON encodes the view the way clients expect it: an object for
// counted results (keeping declared option order) and an array for
// open-ended answers.
func (r ResultView) MarshalJSON() ([]byte, error) {
	switch {
	case IsChoiceType(r.PollType):
		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, oc := range r.Options {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(oc.Option)
			if err != nil {
				return nil, err
			}
			buf.Write(key)
			buf.WriteByte(':')
			val, err := json.Marshal(oc.Count)
			if err != nil {
				return nil, err
			}
			buf.Write(val)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	case r.PollType == PollTypeWordCloud:
		if r.Words == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(r.Words)
	default:
		if r.Answers == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(r.Answers)
	}
}
