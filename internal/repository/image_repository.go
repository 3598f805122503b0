package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// ImageRepository persists image attachment metadata.
type ImageRepository interface {
	Create(ctx context.Context, image *domain.Image) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Image, error)
	// ListByScope returns images attached directly to the ticket when
	// replyID is nil, or images attached to that reply otherwise.
	ListByScope(ctx context.Context, ticketID string, replyID *string) ([]domain.Image, error)
}

type imageRepository struct {
	pool *pgxpool.Pool
}

// NewImageRepository constructs repository.
func NewImageRepository(pool *pgxpool.Pool) ImageRepository {
	return &imageRepository{pool: pool}
}

func (r *imageRepository) Create(ctx context.Context, image *domain.Image) error {
	const query = `
        INSERT INTO images (id, ticket_id, reply_id, url, original_filename)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING uploaded_at`
	return r.pool.QueryRow(ctx, query,
		image.ID,
		image.TicketID,
		image.ReplyID,
		image.URL,
		image.OriginalFilename,
	).Scan(&image.UploadedAt)
}

func (r *imageRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Image, error) {
	const query = `
        SELECT id, ticket_id, reply_id, url, original_filename, uploaded_at
        FROM images WHERE ticket_id=$1 ORDER BY uploaded_at ASC, id ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanImages(rows)
}

func (r *imageRepository) ListByScope(ctx context.Context, ticketID string, replyID *string) ([]domain.Image, error) {
	var rows pgx.Rows
	var err error
	if replyID == nil {
		const query = `
            SELECT id, ticket_id, reply_id, url, original_filename, uploaded_at
            FROM images WHERE ticket_id=$1 AND reply_id IS NULL ORDER BY uploaded_at ASC, id ASC`
		rows, err = r.pool.Query(ctx, query, ticketID)
	} else {
		const query = `
            SELECT id, ticket_id, reply_id, url, original_filename, uploaded_at
            FROM images WHERE ticket_id=$1 AND reply_id=$2 ORDER BY uploaded_at ASC, id ASC`
		rows, err = r.pool.Query(ctx, query, ticketID, *replyID)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanImages(rows)
}

func scanImages(rows pgx.Rows) ([]domain.Image, error) {
	var result []domain.Image
	for rows.Next() {
		var image domain.Image
		if err := rows.Scan(
			&image.ID,
			&image.TicketID,
			&image.ReplyID,
			&image.URL,
			&image.OriginalFilename,
			&image.UploadedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, image)
	}
	return result, rows.Err()
}
