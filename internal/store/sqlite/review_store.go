package sqlite

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"loomline/internal/domain"
)

type ReviewStore struct{ db *sqlx.DB }

func NewReviewStore(db *sqlx.DB) *ReviewStore { return &ReviewStore{db: db} }

type reviewRow struct {
	ID           string `db:"id"`
	ProductID    string `db:"product_id"`
	CustomerID   string `db:"customer_id"`
	Email        string `db:"customer_email"`
	DisplayName  string `db:"display_name"`
	Rating       int    `db:"rating"`
	Comment      string `db:"comment"`
	Verified     bool   `db:"verified_purchase"`
	HelpfulCount int    `db:"helpful_count"`
	Status       string `db:"status"`
	CreatedAt    string `db:"created_at"`
	UpdatedAt    string `db:"updated_at"`
}

func (r reviewRow) toDomain() domain.Review {
	return domain.Review{
		ID:               r.ID,
		ProductID:        r.ProductID,
		CustomerID:       r.CustomerID,
		CustomerEmail:    r.Email,
		DisplayName:      r.DisplayName,
		Rating:           r.Rating,
		Comment:          r.Comment,
		VerifiedPurchase: r.Verified,
		HelpfulCount:     r.HelpfulCount,
		Status:           domain.ReviewStatus(r.Status),
		CreatedAt:        parseTime(r.CreatedAt),
		UpdatedAt:        parseTime(r.UpdatedAt),
	}
}

func (s *ReviewStore) Create(r *domain.Review) error {
	_, err := s.db.Exec(`
	  INSERT INTO reviews(id,product_id,customer_id,customer_email,display_name,
	    rating,comment,verified_purchase,helpful_count,status,created_at,updated_at)
	  VALUES(?,?,?,?,?,?,?,?,?,?,?,?)
	`, r.ID, r.ProductID, r.CustomerID, r.CustomerEmail, r.DisplayName,
		r.Rating, r.Comment, r.VerifiedPurchase, r.HelpfulCount, r.Status,
		fmtTime(r.CreatedAt), fmtTime(r.UpdatedAt))
	if isUniqueViolation(err) {
		return domain.ErrDuplicateReview
	}
	if err != nil {
		return errors.Wrap(err, "reviews: insert")
	}
	return nil
}

func (s *ReviewStore) ByID(id string) (*domain.Review, error) {
	return s.one(`SELECT * FROM reviews WHERE id=?`, id)
}

func (s *ReviewStore) ByProductAndEmail(productID, normEmail string) (*domain.Review, error) {
	return s.one(`SELECT * FROM reviews WHERE product_id=? AND LOWER(customer_email)=LOWER(?)`, productID, normEmail)
}

func (s *ReviewStore) one(query string, args ...any) (*domain.Review, error) {
	var r reviewRow
	if err := s.db.Get(&r, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, errors.Wrap(err, "reviews: select")
	}
	out := r.toDomain()
	return &out, nil
}

func (s *ReviewStore) ListByProduct(productID string) ([]domain.Review, error) {
	var rows []reviewRow
	err := s.db.Select(&rows, `
	  SELECT * FROM reviews WHERE product_id=? ORDER BY created_at DESC, rowid DESC
	`, productID)
	if err != nil {
		return nil, errors.Wrap(err, "reviews: list")
	}
	out := make([]domain.Review, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *ReviewStore) Update(r *domain.Review) error {
	res, err := s.db.Exec(`
	  UPDATE reviews SET comment=?, rating=?, status=?, helpful_count=?, updated_at=? WHERE id=?
	`, r.Comment, r.Rating, r.Status, r.HelpfulCount, fmtTime(r.UpdatedAt), r.ID)
	if err != nil {
		return errors.Wrap(err, "reviews: update")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ApplyVote performs the toggle read-modify-write inside one transaction
// so the vote row and helpful_count always move together.
func (s *ReviewStore) ApplyVote(reviewID, customerID, normEmail string, helpful bool) (int, error) {
	tx, err := s.db.Beginx()
	if err != nil {
		return 0, errors.Wrap(err, "votes: begin")
	}
	defer func() { _ = tx.Rollback() }()

	var count int
	if err := tx.Get(&count, `SELECT helpful_count FROM reviews WHERE id=?`, reviewID); err != nil {
		if err == sql.ErrNoRows {
			return 0, domain.ErrNotFound
		}
		return 0, errors.Wrap(err, "votes: load review")
	}

	var prior *bool
	var stored bool
	err = tx.Get(&stored, `SELECT helpful FROM review_votes WHERE review_id=? AND LOWER(customer_email)=LOWER(?)`, reviewID, normEmail)
	switch {
	case err == nil:
		prior = &stored
	case err == sql.ErrNoRows:
		// first vote from this customer
	default:
		return 0, errors.Wrap(err, "votes: load prior")
	}

	action, delta := domain.ResolveVote(prior, helpful)
	now := fmtTime(time.Now())
	switch action {
	case domain.VoteInsert:
		if _, err := tx.Exec(`
		  INSERT INTO review_votes(review_id,customer_id,customer_email,helpful,created_at)
		  VALUES(?,?,?,?,?)
		`, reviewID, customerID, normEmail, helpful, now); err != nil {
			return 0, errors.Wrap(err, "votes: insert")
		}
	case domain.VoteFlip:
		if _, err := tx.Exec(`
		  UPDATE review_votes SET helpful=?, created_at=? WHERE review_id=? AND LOWER(customer_email)=LOWER(?)
		`, helpful, now, reviewID, normEmail); err != nil {
			return 0, errors.Wrap(err, "votes: flip")
		}
	case domain.VoteRemove:
		if _, err := tx.Exec(`
		  DELETE FROM review_votes WHERE review_id=? AND LOWER(customer_email)=LOWER(?)
		`, reviewID, normEmail); err != nil {
			return 0, errors.Wrap(err, "votes: delete")
		}
	}

	count += delta
	if count < 0 {
		count = 0
	}
	if _, err := tx.Exec(`UPDATE reviews SET helpful_count=?, updated_at=? WHERE id=?`, count, now, reviewID); err != nil {
		return 0, errors.Wrap(err, "votes: update count")
	}
	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "votes: commit")
	}
	return count, nil
}

func (s *ReviewStore) VotesFor(reviewID string) ([]domain.ReviewVote, error) {
	type voteRow struct {
		ReviewID   string `db:"review_id"`
		CustomerID string `db:"customer_id"`
		Email      string `db:"customer_email"`
		Helpful    bool   `db:"helpful"`
		CreatedAt  string `db:"created_at"`
	}
	var rows []voteRow
	if err := s.db.Select(&rows, `SELECT * FROM review_votes WHERE review_id=?`, reviewID); err != nil {
		return nil, errors.Wrap(err, "votes: list")
	}
	out := make([]domain.ReviewVote, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.ReviewVote{
			ReviewID:      r.ReviewID,
			CustomerID:    r.CustomerID,
			CustomerEmail: r.Email,
			Helpful:       r.Helpful,
			CreatedAt:     parseTime(r.CreatedAt),
		})
	}
	return out, nil
}
