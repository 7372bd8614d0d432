package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func boolPtr(b bool) *bool { return &b }

func TestResolveVote(t *testing.T) {
	cases := []struct {
		name    string
		prior   *bool
		helpful bool
		action  VoteAction
		delta   int
	}{
		{"first helpful vote counts", nil, true, VoteInsert, 1},
		{"first not-helpful vote recorded but not counted", nil, false, VoteInsert, 0},
		{"repeat helpful un-votes and decrements", boolPtr(true), true, VoteRemove, -1},
		{"repeat not-helpful un-votes without decrement", boolPtr(false), false, VoteRemove, 0},
		{"flip to helpful increments", boolPtr(false), true, VoteFlip, 1},
		{"flip to not-helpful decrements", boolPtr(true), false, VoteFlip, -1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			action, delta := ResolveVote(tc.prior, tc.helpful)
			assert.Equal(t, tc.action, action)
			assert.Equal(t, tc.delta, delta)
		})
	}
}

// Replaying any vote sequence through ResolveVote must keep the count
// equal to the number of customers whose current stance is helpful.
func TestResolveVoteSequenceInvariant(t *testing.T) {
	type req struct {
		who     string
		helpful bool
	}
	seq := []req{
		{"a", true}, {"b", true}, {"a", true}, {"a", false},
		{"c", false}, {"c", true}, {"b", false}, {"b", false},
	}
	count := 0
	stance := map[string]*bool{}
	for _, r := range seq {
		action, delta := ResolveVote(stance[r.who], r.helpful)
		switch action {
		case VoteInsert, VoteFlip:
			h := r.helpful
			stance[r.who] = &h
		case VoteRemove:
			delete(stance, r.who)
		}
		count += delta
		if count < 0 {
			count = 0
		}

		want := 0
		for _, s := range stance {
			if *s {
				want++
			}
		}
		assert.Equal(t, want, count)
	}
}
