package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

type PostgresStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, now: time.Now}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

const ideaColumns = `id, title, description, priority, status, tags, assignee, upvotes, comments, due_date, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIdea(row rowScanner) (Idea, error) {
	var (
		idea      Idea
		rawTags   []byte
		dueDate   time.Time
		createdAt time.Time
	)
	err := row.Scan(&idea.ID, &idea.Title, &idea.Description, &idea.Priority, &idea.Status,
		&rawTags, &idea.Assignee, &idea.Upvotes, &idea.Comments, &dueDate, &createdAt)
	if err != nil {
		return Idea{}, err
	}
	if err := json.Unmarshal(rawTags, &idea.Tags); err != nil {
		return Idea{}, fmt.Errorf("decode tags for %s: %w", idea.ID, err)
	}
	if idea.Tags == nil {
		idea.Tags = []string{}
	}
	idea.DueDate = dueDate.Format(DateLayout)
	idea.CreatedAt = createdAt.Format(DateLayout)
	return idea, nil
}

func (s *PostgresStore) ListIdeas(ctx context.Context) (Page[Idea], error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+ideaColumns+` FROM ideas ORDER BY seq`)
	if err != nil {
		return Page[Idea]{}, fmt.Errorf("list ideas: %w", err)
	}
	defer rows.Close()

	var ideas []Idea
	for rows.Next() {
		idea, err := scanIdea(rows)
		if err != nil {
			return Page[Idea]{}, fmt.Errorf("scan idea: %w", err)
		}
		ideas = append(ideas, idea)
	}
	if err := rows.Err(); err != nil {
		return Page[Idea]{}, fmt.Errorf("list ideas: %w", err)
	}
	return SinglePage(ideas), nil
}

func (s *PostgresStore) CreateIdea(ctx context.Context, in IdeaInput) (Idea, error) {
	idea := newIdea(uuid.NewString(), in, s.now())
	tags, err := json.Marshal(idea.Tags)
	if err != nil {
		return Idea{}, fmt.Errorf("encode tags: %w", err)
	}
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO ideas (id, title, description, priority, status, tags, assignee, upvotes, comments, due_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7, 0, 0, $8::date, $9::date)
		RETURNING `+ideaColumns,
		idea.ID, idea.Title, idea.Description, idea.Priority, idea.Status, string(tags), idea.Assignee, idea.DueDate, idea.CreatedAt,
	)
	created, err := scanIdea(row)
	if err != nil {
		return Idea{}, fmt.Errorf("insert idea: %w", err)
	}
	return created, nil
}

func (s *PostgresStore) UpdateIdea(ctx context.Context, id string, patch IdeaPatch) (Idea, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Idea{}, fmt.Errorf("begin update idea: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	idea, err := scanIdea(tx.QueryRowContext(ctx, `SELECT `+ideaColumns+` FROM ideas WHERE id=$1 FOR UPDATE`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Idea{}, fmt.Errorf("idea %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Idea{}, fmt.Errorf("load idea: %w", err)
	}

	patch.Apply(&idea)
	tags, err := json.Marshal(idea.Tags)
	if err != nil {
		return Idea{}, fmt.Errorf("encode tags: %w", err)
	}
	updated, err := scanIdea(tx.QueryRowContext(ctx, `
		UPDATE ideas
		SET title=$2, description=$3, priority=$4, status=$5, tags=$6::jsonb, assignee=$7,
			upvotes=$8, comments=$9, due_date=$10::date
		WHERE id=$1
		RETURNING `+ideaColumns,
		idea.ID, idea.Title, idea.Description, idea.Priority, idea.Status, string(tags), idea.Assignee,
		idea.Upvotes, idea.Comments, idea.DueDate,
	))
	if err != nil {
		return Idea{}, fmt.Errorf("update idea: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Idea{}, fmt.Errorf("commit update idea: %w", err)
	}
	return updated, nil
}

func (s *PostgresStore) DeleteIdea(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM ideas WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete idea: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("idea %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) ListLikes(ctx context.Context, ideaID string) (Page[Like], error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, idea_id, user_id, user_name, created_at
		FROM idea_likes
		WHERE idea_id=$1
		ORDER BY created_at, id
	`, ideaID)
	if err != nil {
		return Page[Like]{}, fmt.Errorf("list likes: %w", err)
	}
	defer rows.Close()

	var likes []Like
	for rows.Next() {
		var like Like
		if err := rows.Scan(&like.ID, &like.IdeaID, &like.UserID, &like.UserName, &like.CreatedAt); err != nil {
			return Page[Like]{}, fmt.Errorf("scan like: %w", err)
		}
		likes = append(likes, like)
	}
	if err := rows.Err(); err != nil {
		return Page[Like]{}, fmt.Errorf("list likes: %w", err)
	}
	return SinglePage(likes), nil
}

func (s *PostgresStore) AddLike(ctx context.Context, ideaID, userID, userName string) (Like, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Like{}, fmt.Errorf("begin add like: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM ideas WHERE id=$1)`, ideaID).Scan(&exists); err != nil {
		return Like{}, fmt.Errorf("check idea: %w", err)
	}
	if !exists {
		return Like{}, fmt.Errorf("idea %s: %w", ideaID, ErrNotFound)
	}

	like := Like{ID: uuid.NewString(), IdeaID: ideaID, UserID: userID, UserName: userName}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO idea_likes (id, idea_id, user_id, user_name)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, like.ID, ideaID, userID, userName).Scan(&like.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return Like{}, fmt.Errorf("like %s/%s: %w", ideaID, userID, ErrConflict)
		}
		return Like{}, fmt.Errorf("insert like: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE ideas SET upvotes = upvotes + 1 WHERE id=$1`, ideaID); err != nil {
		return Like{}, fmt.Errorf("increment upvotes: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Like{}, fmt.Errorf("commit add like: %w", err)
	}
	return like, nil
}

func (s *PostgresStore) RemoveLike(ctx context.Context, ideaID, userID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin remove like: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM idea_likes WHERE idea_id=$1 AND user_id=$2`, ideaID, userID)
	if err != nil {
		return fmt.Errorf("delete like: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("like %s/%s: %w", ideaID, userID, ErrNotFound)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE ideas SET upvotes = GREATEST(upvotes - 1, 0) WHERE id=$1`, ideaID); err != nil {
		return fmt.Errorf("decrement upvotes: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit remove like: %w", err)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
