// Package store persists submitted quotations and purchases in SQLite.
// Lines, measurement tables and totals are stored as JSON snapshots and
// returned exactly as saved.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Simplici0/coatworks/internal/quotation"
)

// ErrNotFound is returned when a document id does not exist.
var ErrNotFound = errors.New("document not found")

const (
	timeLayout     = "2006-01-02 15:04:05"
	defaultPerPage = 20
	maxPerPage     = 100
)

// Store reads and writes documents.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// New returns a Store on db.
func New(db *sql.DB) *Store {
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// WithClock returns a copy of s that stamps documents with now.
func (s *Store) WithClock(now func() time.Time) *Store {
	return &Store{db: s.db, now: now}
}

// Summary is a document row in a listing.
type Summary struct {
	ID           int64            `json:"id"`
	Reference    string           `json:"reference"`
	Kind         quotation.Kind   `json:"kind"`
	CustomerName string           `json:"customerName"`
	QuoteDate    string           `json:"quoteDate"`
	ValidUntil   string           `json:"validUntil"`
	Status       quotation.Status `json:"status"`
	FinalPrice   float64          `json:"finalPrice"`
	CreatedAt    time.Time        `json:"createdAt"`
}

// ListParams filters and pages List. Page starts at 1.
type ListParams struct {
	Kind    quotation.Kind
	Query   string
	Page    int
	PerPage int
}

// Page is one page of summaries.
type Page struct {
	Items   []Summary `json:"items"`
	Total   int       `json:"total"`
	Page    int       `json:"page"`
	PerPage int       `json:"perPage"`
}

// Create saves a new document and returns it with id, reference and
// timestamps set. A reference is generated when the snapshot has none.
func (s *Store) Create(ctx context.Context, doc quotation.DocumentSnapshot) (quotation.DocumentSnapshot, error) {
	if doc.Reference == "" {
		doc.Reference = uuid.NewString()
	}
	if doc.Status == "" {
		doc.Status = quotation.StatusQuote
	}
	now := s.now()
	itemsJSON, totalsJSON, err := encode(doc)
	if err != nil {
		return quotation.DocumentSnapshot{}, err
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (
			reference, kind, customer_id, customer_name, contact_number, address,
			quote_date, valid_until, remarks, terms_conditions, status,
			final_price, items_json, totals_json, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		doc.Reference, string(doc.Kind), doc.CustomerID, doc.CustomerName, doc.ContactNumber, doc.Address,
		doc.QuoteDate, doc.ValidUntil, doc.Remarks, doc.TermsConditions, string(doc.Status),
		doc.Totals.FinalPrice, itemsJSON, totalsJSON, now.Format(timeLayout), now.Format(timeLayout),
	)
	if err != nil {
		return quotation.DocumentSnapshot{}, fmt.Errorf("insert document: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return quotation.DocumentSnapshot{}, fmt.Errorf("read document id: %w", err)
	}
	return s.Get(ctx, id)
}

// Update replaces the header, lines and totals of document id. Kind,
// reference and creation time are kept.
func (s *Store) Update(ctx context.Context, id int64, doc quotation.DocumentSnapshot) (quotation.DocumentSnapshot, error) {
	itemsJSON, totalsJSON, err := encode(doc)
	if err != nil {
		return quotation.DocumentSnapshot{}, err
	}
	if doc.Status == "" {
		doc.Status = quotation.StatusQuote
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE documents
		SET customer_id = ?, customer_name = ?, contact_number = ?, address = ?,
			quote_date = ?, valid_until = ?, remarks = ?, terms_conditions = ?, status = ?,
			final_price = ?, items_json = ?, totals_json = ?, updated_at = ?
		WHERE id = ?
	`,
		doc.CustomerID, doc.CustomerName, doc.ContactNumber, doc.Address,
		doc.QuoteDate, doc.ValidUntil, doc.Remarks, doc.TermsConditions, string(doc.Status),
		doc.Totals.FinalPrice, itemsJSON, totalsJSON, s.now().Format(timeLayout), id,
	)
	if err != nil {
		return quotation.DocumentSnapshot{}, fmt.Errorf("update document %d: %w", id, err)
	}
	if err := requireAffected(result); err != nil {
		return quotation.DocumentSnapshot{}, err
	}
	return s.Get(ctx, id)
}

// Get returns a saved document as it was stored.
func (s *Store) Get(ctx context.Context, id int64) (quotation.DocumentSnapshot, error) {
	var (
		doc                   quotation.DocumentSnapshot
		kind, status          string
		customerID            sql.NullInt64
		contact, address      sql.NullString
		remarks, terms        sql.NullString
		itemsJSON, totalsJSON string
		createdAt, updatedAt  string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, reference, kind, customer_id, customer_name, contact_number, address,
			quote_date, valid_until, remarks, terms_conditions, status,
			items_json, totals_json, created_at, updated_at
		FROM documents
		WHERE id = ?
	`, id).Scan(
		&doc.ID, &doc.Reference, &kind, &customerID, &doc.CustomerName, &contact, &address,
		&doc.QuoteDate, &doc.ValidUntil, &remarks, &terms, &status,
		&itemsJSON, &totalsJSON, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return quotation.DocumentSnapshot{}, ErrNotFound
	}
	if err != nil {
		return quotation.DocumentSnapshot{}, fmt.Errorf("load document %d: %w", id, err)
	}

	doc.Kind = quotation.Kind(kind)
	doc.Status = quotation.Status(status)
	if customerID.Valid {
		doc.CustomerID = &customerID.Int64
	}
	doc.ContactNumber = contact.String
	doc.Address = address.String
	doc.Remarks = remarks.String
	doc.TermsConditions = terms.String
	doc.CreatedAt = parseTime(createdAt)
	doc.UpdatedAt = parseTime(updatedAt)

	if err := json.Unmarshal([]byte(itemsJSON), &doc.Lines); err != nil {
		return quotation.DocumentSnapshot{}, fmt.Errorf("decode items of document %d: %w", id, err)
	}
	if err := json.Unmarshal([]byte(totalsJSON), &doc.Totals); err != nil {
		return quotation.DocumentSnapshot{}, fmt.Errorf("decode totals of document %d: %w", id, err)
	}
	return doc, nil
}

// List returns documents newest first. Query matches customer name,
// reference and remarks.
func (s *Store) List(ctx context.Context, params ListParams) (Page, error) {
	page, perPage := params.Page, params.PerPage
	if page < 1 {
		page = 1
	}
	switch {
	case perPage < 1:
		perPage = defaultPerPage
	case perPage > maxPerPage:
		perPage = maxPerPage
	}
	query := strings.TrimSpace(params.Query)
	search := "%" + query + "%"
	filter := `
		FROM documents
		WHERE (? = '' OR kind = ?)
		  AND (? = '' OR customer_name LIKE ? OR reference LIKE ? OR COALESCE(remarks, '') LIKE ?)
	`
	args := []any{string(params.Kind), string(params.Kind), query, search, search, search}

	out := Page{Items: make([]Summary, 0), Page: page, PerPage: perPage}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) "+filter, args...).Scan(&out.Total); err != nil {
		return Page{}, fmt.Errorf("count documents: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, reference, kind, customer_name, quote_date, valid_until, status, final_price, created_at
	`+filter+`
		ORDER BY datetime(created_at) DESC, id DESC
		LIMIT ? OFFSET ?
	`, append(args, perPage, (page-1)*perPage)...)
	if err != nil {
		return Page{}, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			item         Summary
			kind, status string
			createdAt    string
		)
		if err := rows.Scan(&item.ID, &item.Reference, &kind, &item.CustomerName, &item.QuoteDate,
			&item.ValidUntil, &status, &item.FinalPrice, &createdAt); err != nil {
			return Page{}, fmt.Errorf("scan document: %w", err)
		}
		item.Kind = quotation.Kind(kind)
		item.Status = quotation.Status(status)
		item.CreatedAt = parseTime(createdAt)
		out.Items = append(out.Items, item)
	}
	if err := rows.Err(); err != nil {
		return Page{}, fmt.Errorf("iterate documents: %w", err)
	}
	return out, nil
}

// UpdateStatus sets the status of document id.
func (s *Store) UpdateStatus(ctx context.Context, id int64, status quotation.Status) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE documents SET status = ?, updated_at = ? WHERE id = ?
	`, string(status), s.now().Format(timeLayout), id)
	if err != nil {
		return fmt.Errorf("update status of document %d: %w", id, err)
	}
	return requireAffected(result)
}

// Delete removes document id.
func (s *Store) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete document %d: %w", id, err)
	}
	return requireAffected(result)
}

func encode(doc quotation.DocumentSnapshot) (string, string, error) {
	lines := doc.Lines
	if lines == nil {
		lines = []quotation.LineSnapshot{}
	}
	items, err := json.Marshal(lines)
	if err != nil {
		return "", "", fmt.Errorf("encode items: %w", err)
	}
	totals, err := json.Marshal(doc.Totals)
	if err != nil {
		return "", "", fmt.Errorf("encode totals: %w", err)
	}
	return string(items), string(totals), nil
}

func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// parseTime reads timestamps written by this package or by SQLite's
// CURRENT_TIMESTAMP. The driver may also hand back RFC 3339 text.
func parseTime(raw string) time.Time {
	for _, layout := range []string{timeLayout, time.RFC3339Nano} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
