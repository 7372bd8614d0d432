package domain

import "time"

type ReviewStatus string

const (
	ReviewApproved ReviewStatus = "approved"
	ReviewPending  ReviewStatus = "pending"
	ReviewRejected ReviewStatus = "rejected"
)

// MinCommentLen is the shortest comment accepted on a review.
const MinCommentLen = 10

type Review struct {
	ID               string       `json:"id"`
	ProductID        string       `json:"productId"`
	CustomerID       string       `json:"customerId"`
	CustomerEmail    string       `json:"customerEmail"` // normalized; unique per product
	DisplayName      string       `json:"displayName"`
	Rating           int          `json:"rating"`
	Comment          string       `json:"comment"`
	VerifiedPurchase bool         `json:"verifiedPurchase"`
	HelpfulCount     int          `json:"helpfulCount"`
	Status           ReviewStatus `json:"status"`
	CreatedAt        time.Time    `json:"createdAt"`
	UpdatedAt        time.Time    `json:"updatedAt"`
}

// ReviewVote is the current stance of one customer on one review,
// keyed by (reviewID, customerEmail). Overwritten in place, never a log.
type ReviewVote struct {
	ReviewID      string    `json:"reviewId"`
	CustomerID    string    `json:"customerId"`
	CustomerEmail string    `json:"customerEmail"`
	Helpful       bool      `json:"helpful"`
	CreatedAt     time.Time `json:"createdAt"`
}

// VoteAction describes what a vote request does to the stored vote row.
type VoteAction int

const (
	VoteInsert VoteAction = iota // no prior vote: insert the new stance
	VoteRemove                   // same polarity again: un-vote, delete the row
	VoteFlip                     // opposite polarity: overwrite the stance
)

// ResolveVote applies the toggle rules to a prior stance (nil if the
// customer has not voted) and returns the row action plus the helpfulCount
// delta. Both storage backends route through this so the invariant
// helpfulCount == count(votes with helpful=true) holds after any sequence.
func ResolveVote(prior *bool, helpful bool) (VoteAction, int) {
	if prior == nil {
		if helpful {
			return VoteInsert, 1
		}
		return VoteInsert, 0
	}
	if *prior == helpful {
		if helpful {
			return VoteRemove, -1
		}
		return VoteRemove, 0
	}
	if helpful {
		return VoteFlip, 1
	}
	return VoteFlip, -1
}

// ReviewStats aggregates approved reviews for one product.
type ReviewStats struct {
	AverageRating float64     `json:"averageRating"` // rounded to one decimal
	TotalReviews  int         `json:"totalReviews"`
	Distribution  map[int]int `json:"distribution"` // rating 1..5 -> count
}
