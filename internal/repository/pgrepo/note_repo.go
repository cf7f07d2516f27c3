package pgrepo

import (
	"context"

	"github.com/fsdevblog/cafe-pos/internal/domain"
	"github.com/fsdevblog/cafe-pos/internal/repository/repoargs"
	"github.com/fsdevblog/cafe-pos/pkg/uow"
	"github.com/jackc/pgx/v5"
)

const noteColumns = `note_id::text, created_at, updated_at, member_id::text, category, content`

type NoteRepository struct {
	conn uow.DBTX
}

func NewNoteRepository(conn uow.DBTX) *NoteRepository {
	return &NoteRepository{conn: conn}
}

// ListByMember возвращает заметки участника, последние измененные - первыми.
func (n *NoteRepository) ListByMember(ctx context.Context, memberID string) ([]domain.Note, error) {
	rows, err := n.conn.Query(ctx,
		`SELECT `+noteColumns+` FROM member_notes WHERE member_id = $1 ORDER BY updated_at DESC`,
		memberID,
	)
	if err != nil {
		return nil, convertErr(err, "listing notes of member `%s`", memberID)
	}
	notes, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Note, error) {
		note, scanErr := scanNote(row)
		if scanErr != nil {
			return domain.Note{}, scanErr
		}
		return *note, nil
	})
	if err != nil {
		return nil, convertErr(err, "collecting notes of member `%s`", memberID)
	}
	return notes, nil
}

// Upsert создает заметку или заменяет содержимое существующей заметки той же категории.
func (n *NoteRepository) Upsert(ctx context.Context, args repoargs.UpsertNote) (*domain.Note, error) {
	row := n.conn.QueryRow(ctx,
		`INSERT INTO member_notes (member_id, category, content)
		VALUES ($1, $2, $3)
		ON CONFLICT (member_id, category) DO UPDATE SET content = excluded.content, updated_at = now()
		RETURNING `+noteColumns,
		args.MemberID, args.Category, args.Content,
	)
	note, err := scanNote(row)
	if err != nil {
		return nil, convertErr(err, "upserting note of member `%s`", args.MemberID)
	}
	return note, nil
}

func (n *NoteRepository) Delete(ctx context.Context, noteID string) error {
	tag, err := n.conn.Exec(ctx, `DELETE FROM member_notes WHERE note_id = $1`, noteID)
	if err != nil {
		return convertErr(err, "deleting note `%s`", noteID)
	}
	if tag.RowsAffected() == 0 {
		return convertErr(pgx.ErrNoRows, "deleting note `%s`", noteID)
	}
	return nil
}

func scanNote(row pgx.Row) (*domain.Note, error) {
	var note domain.Note
	if err := row.Scan(
		&note.ID,
		&note.CreatedAt,
		&note.UpdatedAt,
		&note.MemberID,
		&note.Category,
		&note.Content,
	); err != nil {
		return nil, err //nolint:wrapcheck
	}
	return &note, nil
}
