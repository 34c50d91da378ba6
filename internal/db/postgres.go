package talent

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	models "github.com/BANSEOKCHA/my-yks-app/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	uid            TEXT PRIMARY KEY,
	email          TEXT NOT NULL UNIQUE,
	name           TEXT NOT NULL,
	cell           TEXT,
	phone          TEXT,
	role           TEXT NOT NULL DEFAULT 'user',
	disabled       BOOLEAN NOT NULL DEFAULT FALSE,
	created_at     TIMESTAMPTZ NOT NULL,
	talent_score   BIGINT NOT NULL DEFAULT 0,
	last_post_date TIMESTAMPTZ,
	last_qr_date   TIMESTAMPTZ
);
CREATE TABLE IF NOT EXISTS score_history (
	id              UUID PRIMARY KEY,
	user_id         TEXT NOT NULL REFERENCES users(uid),
	score           BIGINT NOT NULL,
	reason          TEXT NOT NULL,
	mission_content TEXT NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS score_history_user ON score_history (user_id, created_at DESC);
CREATE TABLE IF NOT EXISTS posts (
	id           UUID PRIMARY KEY,
	user_id      TEXT NOT NULL,
	mission_type TEXT NOT NULL,
	content      TEXT NOT NULL,
	is_public    BOOLEAN NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS posts_user ON posts (user_id, created_at DESC);
`

var userColumns = []string{"uid", "email", "name", "cell", "phone", "role", "disabled", "created_at",
	"talent_score", "last_post_date", "last_qr_date"}

type pgTxKey struct{}

// pool or the transaction carried by ctx
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostgresDB struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgresDB(ctx context.Context, dsn string, logger *zap.Logger) (*PostgresDB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn is not set")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		return nil, err
	}
	_, err = pool.Exec(ctx, schema)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresDB{pool, logger}, nil
}

func (p *PostgresDB) conn(ctx context.Context) querier {
	if tx, ok := ctx.Value(pgTxKey{}).(pgx.Tx); ok {
		return tx
	}
	return p.pool
}

func (p *PostgresDB) sqlError(err error, sql string, args []any) error {
	p.logger.Error("SQL error",
		zap.Error(err),
		zap.String("query", sql),
		zap.Any("args", args),
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return models.ErrAlreadyExists
	}
	return fmt.Errorf("%w: %v", models.ErrStorageUnavailable, err)
}

func (p *PostgresDB) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(pgTxKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		p.logger.Error("Begin tx error", zap.Error(err))
		return fmt.Errorf("%w: %v", models.ErrStorageUnavailable, err)
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	err = fn(context.WithValue(ctx, pgTxKey{}, tx))
	if err != nil {
		return err
	}
	err = tx.Commit(ctx)
	if err != nil {
		p.logger.Error("Commit error", zap.Error(err))
		return fmt.Errorf("%w: %v", models.ErrStorageUnavailable, err)
	}
	return nil
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	var cell, phone pgtype.Text
	err := row.Scan(&user.UID, &user.Email, &user.Name, &cell, &phone, &user.Role, &user.Disabled, &user.CreatedAt,
		&user.TalentScore, &user.LastPostRewardDate, &user.LastCheckinRewardDate)
	if err != nil {
		return models.User{}, err
	}
	user.Cell = cell.String
	user.Phone = phone.String
	return user, nil
}

func nullable(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{Status: pgtype.Null}
	}
	return pgtype.Text{String: s, Status: pgtype.Present}
}

func (p *PostgresDB) Get(ctx context.Context, userID string) (models.User, error) {
	sql, args, err := sq.Select(userColumns...).
		From("users").
		Where(sq.Eq{"uid": userID}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return models.User{}, p.sqlError(err, sql, args)
	}
	user, err := scanUser(p.conn(ctx).QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, fmt.Errorf("user %s: %w", userID, models.ErrNotFound)
		}
		return models.User{}, p.sqlError(err, sql, args)
	}
	return user, nil
}

// Updates only while the stored score and both reward days still equal expected
func (p *PostgresDB) CompareAndSet(ctx context.Context, userID string, expected models.RewardState, next models.RewardState) error {
	sql, args, err := sq.Update("users").
		Set("talent_score", next.TalentScore).
		Set("last_post_date", next.LastPostRewardDate).
		Set("last_qr_date", next.LastCheckinRewardDate).
		Where(sq.Eq{"uid": userID, "talent_score": expected.TalentScore}).
		Where("last_post_date IS NOT DISTINCT FROM ?::timestamptz", expected.LastPostRewardDate).
		Where("last_qr_date IS NOT DISTINCT FROM ?::timestamptz", expected.LastCheckinRewardDate).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return p.sqlError(err, sql, args)
	}
	tag, err := p.conn(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return p.sqlError(err, sql, args)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	_, err = p.Get(ctx, userID)
	if err != nil {
		return err
	}
	return fmt.Errorf("user %s: %w", userID, models.ErrConflict)
}

func (p *PostgresDB) Create(ctx context.Context, user models.User) error {
	sql, args, err := sq.Insert("users").
		Columns(userColumns...).
		Values(user.UID, user.Email, user.Name, nullable(user.Cell), nullable(user.Phone), user.Role, user.Disabled,
			user.CreatedAt, user.TalentScore, user.LastPostRewardDate, user.LastCheckinRewardDate).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return p.sqlError(err, sql, args)
	}
	_, err = p.conn(ctx).Exec(ctx, sql, args...)
	if err != nil {
		err = p.sqlError(err, sql, args)
		if errors.Is(err, models.ErrAlreadyExists) {
			return fmt.Errorf("user %s: %w", user.UID, err)
		}
		return err
	}
	return nil
}

func (p *PostgresDB) List(ctx context.Context) ([]models.User, error) {
	sql, args, err := sq.Select(userColumns...).
		From("users").
		OrderBy("created_at").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, p.sqlError(err, sql, args)
	}
	rows, err := p.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, p.sqlError(err, sql, args)
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, p.sqlError(err, sql, args)
		}
		users = append(users, user)
	}
	if err = rows.Err(); err != nil {
		return nil, p.sqlError(err, sql, args)
	}
	return users, nil
}

func (p *PostgresDB) SetDisabled(ctx context.Context, userID string, disabled bool) error {
	sql, args, err := sq.Update("users").
		Set("disabled", disabled).
		Where(sq.Eq{"uid": userID}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return p.sqlError(err, sql, args)
	}
	tag, err := p.conn(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return p.sqlError(err, sql, args)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", userID, models.ErrNotFound)
	}
	return nil
}

func (p *PostgresDB) Append(ctx context.Context, userID string, entry models.HistoryEntry) error {
	sql, args, err := sq.Insert("score_history").
		Columns("id", "user_id", "score", "reason", "mission_content", "created_at").
		Values(entry.ID, userID, entry.Amount, string(entry.Reason), entry.Label, entry.CreatedAt).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return p.sqlError(err, sql, args)
	}
	_, err = p.conn(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return p.sqlError(err, sql, args)
	}
	return nil
}

func (p *PostgresDB) History(ctx context.Context, userID string) ([]models.HistoryEntry, error) {
	sql, args, err := sq.Select("id", "user_id", "score", "reason", "mission_content", "created_at").
		From("score_history").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, p.sqlError(err, sql, args)
	}
	rows, err := p.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, p.sqlError(err, sql, args)
	}
	defer rows.Close()

	entries := make([]models.HistoryEntry, 0)
	for rows.Next() {
		var entry models.HistoryEntry
		var id pgtype.UUID
		var reason string
		err = rows.Scan(&id, &entry.UserID, &entry.Amount, &reason, &entry.Label, &entry.CreatedAt)
		if err != nil {
			return nil, p.sqlError(err, sql, args)
		}
		entry.ID, _ = uuid.FromBytes(id.Bytes[:])
		entry.Reason = models.Reason(reason)
		entries = append(entries, entry)
	}
	if err = rows.Err(); err != nil {
		return nil, p.sqlError(err, sql, args)
	}
	return entries, nil
}

var postColumns = []string{"id", "user_id", "mission_type", "content", "is_public", "created_at"}

func scanPost(row pgx.Row) (models.Post, error) {
	var post models.Post
	var id pgtype.UUID
	var mission string
	err := row.Scan(&id, &post.UserID, &mission, &post.Content, &post.IsPublic, &post.CreatedAt)
	if err != nil {
		return models.Post{}, err
	}
	post.ID, _ = uuid.FromBytes(id.Bytes[:])
	post.MissionType = models.MissionType(mission)
	return post, nil
}

func (p *PostgresDB) CreatePost(ctx context.Context, post models.Post) error {
	sql, args, err := sq.Insert("posts").
		Columns(postColumns...).
		Values(post.ID, post.UserID, string(post.MissionType), post.Content, post.IsPublic, post.CreatedAt).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return p.sqlError(err, sql, args)
	}
	_, err = p.conn(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return p.sqlError(err, sql, args)
	}
	return nil
}

func (p *PostgresDB) GetPost(ctx context.Context, postID uuid.UUID) (models.Post, error) {
	sql, args, err := sq.Select(postColumns...).
		From("posts").
		Where(sq.Eq{"id": postID}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return models.Post{}, p.sqlError(err, sql, args)
	}
	post, err := scanPost(p.conn(ctx).QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Post{}, fmt.Errorf("post %s: %w", postID, models.ErrNotFound)
		}
		return models.Post{}, p.sqlError(err, sql, args)
	}
	return post, nil
}

func (p *PostgresDB) UpdatePostContent(ctx context.Context, postID uuid.UUID, content string) error {
	sql, args, err := sq.Update("posts").
		Set("content", content).
		Where(sq.Eq{"id": postID}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return p.sqlError(err, sql, args)
	}
	tag, err := p.conn(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return p.sqlError(err, sql, args)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("post %s: %w", postID, models.ErrNotFound)
	}
	return nil
}

func (p *PostgresDB) DeletePost(ctx context.Context, postID uuid.UUID) error {
	sql, args, err := sq.Delete("posts").
		Where(sq.Eq{"id": postID}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return p.sqlError(err, sql, args)
	}
	tag, err := p.conn(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return p.sqlError(err, sql, args)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("post %s: %w", postID, models.ErrNotFound)
	}
	return nil
}

func (p *PostgresDB) ListPosts(ctx context.Context, filter models.PostFilter) ([]models.Post, error) {
	query := sq.Select(postColumns...).From("posts")
	if filter.UserID != "" {
		query = query.Where(sq.Eq{"user_id": filter.UserID})
	}
	if filter.PublicOnly {
		query = query.Where(sq.Eq{"is_public": true})
	}
	sql, args, err := query.
		OrderBy("created_at DESC").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, p.sqlError(err, sql, args)
	}
	rows, err := p.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, p.sqlError(err, sql, args)
	}
	defer rows.Close()

	posts := make([]models.Post, 0)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, p.sqlError(err, sql, args)
		}
		posts = append(posts, post)
	}
	if err = rows.Err(); err != nil {
		return nil, p.sqlError(err, sql, args)
	}
	return posts, nil
}

func (p *PostgresDB) Close(ctx context.Context) error {
	p.pool.Close()
	return nil
}
