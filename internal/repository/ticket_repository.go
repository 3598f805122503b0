package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// Attribute keys for the extensible ticket_attributes table.
const (
	AttrStatus      = "status"
	AttrPriority    = "priority"
	AttrCategory    = "category"
	AttrAuthorName  = "author_name"
	AttrAuthorEmail = "author_email"
)

// TicketFilter captures search parameters. OwnerUserID and OwnerEmail are
// OR-combined; every other key narrows with AND.
type TicketFilter struct {
	SearchText  *string
	Status      *domain.TicketStatus
	Priority    *domain.TicketPriority
	Category    *domain.TicketCategory
	OwnerUserID *string
	OwnerEmail  *string
	Limit       int
	Offset      int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	UpdateAttributes(ctx context.Context, id string, attrs map[string]string) error
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, int, error)
	CountReplies(ctx context.Context, ticketIDs []string) (map[string]int, error)
	Delete(ctx context.Context, id string) error
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const query = `
        INSERT INTO tickets (id, title, content, author_user_id)
        VALUES ($1,$2,$3,$4)
        RETURNING created_at`
	if err := tx.QueryRow(ctx, query,
		ticket.ID,
		ticket.Title,
		ticket.Content,
		ticket.AuthorID,
	).Scan(&ticket.CreatedAt); err != nil {
		return err
	}

	for key, value := range attributeMap(ticket) {
		if _, err := tx.Exec(ctx,
			`INSERT INTO ticket_attributes (ticket_id, attr_key, attr_value) VALUES ($1,$2,$3)`,
			ticket.ID, key, value,
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	const query = `SELECT id, title, content, author_user_id, created_at FROM tickets WHERE id=$1`
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Content,
		&ticket.AuthorID,
		&ticket.CreatedAt,
	); err != nil {
		return nil, err
	}
	if err := r.loadAttributes(ctx, []*domain.Ticket{&ticket}); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) UpdateAttributes(ctx context.Context, id string, attrs map[string]string) error {
	if len(attrs) == 0 {
		return nil
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tickets WHERE id=$1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return pgx.ErrNoRows
	}

	for key, value := range attrs {
		if _, err := tx.Exec(ctx, `
            INSERT INTO ticket_attributes (ticket_id, attr_key, attr_value) VALUES ($1,$2,$3)
            ON CONFLICT (ticket_id, attr_key) DO UPDATE SET attr_value = EXCLUDED.attr_value`,
			id, key, value,
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, int, error) {
	clauses := []string{"1=1"}
	args := []any{}

	attrEquals := func(key, value string) string {
		args = append(args, value)
		return fmt.Sprintf(
			"EXISTS (SELECT 1 FROM ticket_attributes a WHERE a.ticket_id = t.id AND a.attr_key = '%s' AND a.attr_value = $%d)",
			key, len(args))
	}

	if filter.Status != nil {
		clauses = append(clauses, attrEquals(AttrStatus, string(*filter.Status)))
	}
	if filter.Priority != nil {
		clauses = append(clauses, attrEquals(AttrPriority, string(*filter.Priority)))
	}
	if filter.Category != nil {
		clauses = append(clauses, attrEquals(AttrCategory, string(*filter.Category)))
	}
	if filter.SearchText != nil && strings.TrimSpace(*filter.SearchText) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchText)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(t.title) LIKE %s OR LOWER(t.content) LIKE %s)", placeholder, placeholder))
	}

	ownerClauses := []string{}
	if filter.OwnerUserID != nil {
		args = append(args, *filter.OwnerUserID)
		ownerClauses = append(ownerClauses, fmt.Sprintf("t.author_user_id = $%d", len(args)))
	}
	if filter.OwnerEmail != nil {
		ownerClauses = append(ownerClauses, attrEquals(AttrAuthorEmail, *filter.OwnerEmail))
	}
	if len(ownerClauses) > 0 {
		clauses = append(clauses, "("+strings.Join(ownerClauses, " OR ")+")")
	}

	where := strings.Join(clauses, " AND ")

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM tickets t WHERE %s`, where)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`
        SELECT t.id, t.title, t.content, t.author_user_id, t.created_at
        FROM tickets t WHERE %s
        ORDER BY t.created_at DESC LIMIT %d OFFSET %d`, where, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.Title,
			&ticket.Content,
			&ticket.AuthorID,
			&ticket.CreatedAt,
		); err != nil {
			return nil, 0, err
		}
		result = append(result, ticket)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	refs := make([]*domain.Ticket, len(result))
	for i := range result {
		refs[i] = &result[i]
	}
	if err := r.loadAttributes(ctx, refs); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

func (r *ticketRepository) CountReplies(ctx context.Context, ticketIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(ticketIDs))
	if len(ticketIDs) == 0 {
		return counts, nil
	}
	const query = `SELECT ticket_id, COUNT(*) FROM replies WHERE ticket_id = ANY($1) GROUP BY ticket_id`
	rows, err := r.pool.Query(ctx, query, ticketIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var count int
		if err := rows.Scan(&id, &count); err != nil {
			return nil, err
		}
		counts[id] = count
	}
	return counts, rows.Err()
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) loadAttributes(ctx context.Context, tickets []*domain.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}
	ids := make([]string, len(tickets))
	byID := make(map[string]*domain.Ticket, len(tickets))
	for i, ticket := range tickets {
		ids[i] = ticket.ID
		byID[ticket.ID] = ticket
	}

	const query = `SELECT ticket_id, attr_key, attr_value FROM ticket_attributes WHERE ticket_id = ANY($1)`
	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var ticketID, key, value string
		if err := rows.Scan(&ticketID, &key, &value); err != nil {
			return err
		}
		if ticket, ok := byID[ticketID]; ok {
			applyAttribute(ticket, key, value)
		}
	}
	return rows.Err()
}

func attributeMap(ticket *domain.Ticket) map[string]string {
	attrs := map[string]string{
		AttrStatus:      string(ticket.Status),
		AttrPriority:    string(ticket.Priority),
		AttrAuthorName:  ticket.AuthorName,
		AttrAuthorEmail: ticket.AuthorEmail,
	}
	if ticket.Category != domain.TicketCategoryNone {
		attrs[AttrCategory] = string(ticket.Category)
	}
	return attrs
}

func applyAttribute(ticket *domain.Ticket, key, value string) {
	switch key {
	case AttrStatus:
		ticket.Status = domain.TicketStatus(value)
	case AttrPriority:
		ticket.Priority = domain.TicketPriority(value)
	case AttrCategory:
		ticket.Category = domain.TicketCategory(value)
	case AttrAuthorName:
		ticket.AuthorName = value
	case AttrAuthorEmail:
		ticket.AuthorEmail = value
	}
}
