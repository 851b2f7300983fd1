package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/cloudvid/transcriber-service/internal/apperr"
	"github.com/cloudvid/transcriber-service/internal/config"
	"github.com/cloudvid/transcriber-service/internal/types"
	"github.com/cloudvid/transcriber-service/internal/types/users"
)

const uniqueViolation = "23505"

type Postgres struct {
	Db *sql.DB
}

func NewPostgres(cfg *config.Config) (*Postgres, error) {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.PGSQL.Host, cfg.PGSQL.Port, cfg.PGSQL.User, cfg.PGSQL.Password, cfg.PGSQL.DBName, cfg.PGSQL.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	pg := &Postgres{Db: db}
	if err := pg.CreateTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return pg, nil
}

func (p *Postgres) CreateTables() error {
	queries := []string{
		`
		CREATE TABLE IF NOT EXISTS users (
			id SERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255) UNIQUE NOT NULL,
			password TEXT NOT NULL,
			plan VARCHAR(20) NOT NULL CHECK (plan IN ('free', 'paid')),
			role VARCHAR(20) NOT NULL DEFAULT 'user' CHECK (role IN ('user', 'admin')),
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS videos (
			id SERIAL PRIMARY KEY,
			original_name VARCHAR(255) NOT NULL,
			url TEXT NOT NULL,
			object_key TEXT NOT NULL,
			storage_backend VARCHAR(20) NOT NULL CHECK (storage_backend IN ('stream', 'bucket')),
			status VARCHAR(20) NOT NULL DEFAULT 'uploaded'
				CHECK (status IN ('uploaded', 'processing', 'transcribed', 'failed')),
			transcript TEXT NOT NULL DEFAULT '',
			summary TEXT NOT NULL DEFAULT '',
			transcription_job VARCHAR(255) NOT NULL DEFAULT '',
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		`,
		`CREATE INDEX IF NOT EXISTS idx_videos_user_id ON videos(user_id);`,
	}

	for _, q := range queries {
		if _, err := p.Db.Exec(q); err != nil {
			return err
		}
	}

	return nil
}

func (p *Postgres) CreateUser(name, email, hashedPassword, plan string) (string, error) {
	var userID int
	query := `
	INSERT INTO users (name, email, password, plan)
	VALUES ($1, $2, $3, $4)
	RETURNING id
	`

	err := p.Db.QueryRow(query, name, email, hashedPassword, plan).Scan(&userID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return "", apperr.ErrConflict
		}
		return "", err
	}

	return fmt.Sprintf("%d", userID), nil
}

func (p *Postgres) GetUserByEmail(email string) (*users.User, error) {
	return p.getUser("SELECT id, name, email, password, plan, role, created_at FROM users WHERE email = $1", email)
}

func (p *Postgres) GetUserByID(id string) (*users.User, error) {
	return p.getUser("SELECT id, name, email, password, plan, role, created_at FROM users WHERE id = $1", id)
}

func (p *Postgres) getUser(query string, arg interface{}) (*users.User, error) {
	var u users.User
	var userID int

	err := p.Db.QueryRow(query, arg).Scan(&userID, &u.Name, &u.Email, &u.Password, &u.Plan, &u.Role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	u.ID = fmt.Sprintf("%d", userID)
	return &u, nil
}

func (p *Postgres) ListUsers() ([]users.User, error) {
	query := `SELECT id, name, email, plan, role, created_at FROM users ORDER BY created_at DESC`

	rows, err := p.Db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []users.User
	for rows.Next() {
		var u users.User
		var userID int
		if err := rows.Scan(&userID, &u.Name, &u.Email, &u.Plan, &u.Role, &u.CreatedAt); err != nil {
			return nil, err
		}
		u.ID = fmt.Sprintf("%d", userID)
		result = append(result, u)
	}

	return result, rows.Err()
}

func (p *Postgres) DeleteUser(id string) error {
	res, err := p.Db.Exec(`DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperr.ErrNotFound
	}

	return nil
}

func (p *Postgres) CreateVideo(v *types.Video) (string, error) {
	var videoID int
	query := `
	INSERT INTO videos (original_name, url, object_key, storage_backend, user_id)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id
	`

	err := p.Db.QueryRow(query, v.OriginalName, v.URL, v.ObjectKey, v.StorageBackend, v.UserID).Scan(&videoID)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%d", videoID), nil
}

const videoColumns = `id, original_name, url, object_key, storage_backend, status, transcript, summary, transcription_job, user_id, created_at`

func scanVideo(row interface{ Scan(...interface{}) error }) (*types.Video, error) {
	var v types.Video
	var videoID, userID int

	err := row.Scan(&videoID, &v.OriginalName, &v.URL, &v.ObjectKey, &v.StorageBackend,
		&v.Status, &v.Transcript, &v.Summary, &v.TranscriptionJob, &userID, &v.CreatedAt)
	if err != nil {
		return nil, err
	}

	v.ID = fmt.Sprintf("%d", videoID)
	v.UserID = fmt.Sprintf("%d", userID)
	return &v, nil
}

func (p *Postgres) GetVideoByID(id string) (*types.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos WHERE id = $1`

	v, err := scanVideo(p.Db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return v, nil
}

func (p *Postgres) ListVideosByUser(userID string) ([]types.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := p.Db.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []types.Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *v)
	}

	return result, rows.Err()
}

func (p *Postgres) ListAllVideos() ([]types.VideoWithOwner, error) {
	query := `
	SELECT v.id, v.original_name, v.url, v.object_key, v.storage_backend, v.status,
	       v.transcript, v.summary, v.transcription_job, v.user_id, v.created_at,
	       u.name, u.email
	FROM videos v
	JOIN users u ON u.id = v.user_id
	ORDER BY v.created_at DESC
	`

	rows, err := p.Db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []types.VideoWithOwner
	for rows.Next() {
		var vo types.VideoWithOwner
		var videoID, userID int
		err := rows.Scan(&videoID, &vo.OriginalName, &vo.URL, &vo.ObjectKey, &vo.StorageBackend,
			&vo.Status, &vo.Transcript, &vo.Summary, &vo.TranscriptionJob, &userID, &vo.CreatedAt,
			&vo.OwnerName, &vo.OwnerEmail)
		if err != nil {
			return nil, err
		}
		vo.ID = fmt.Sprintf("%d", videoID)
		vo.UserID = fmt.Sprintf("%d", userID)
		result = append(result, vo)
	}

	return result, rows.Err()
}

func (p *Postgres) DeleteVideo(id string) error {
	res, err := p.Db.Exec(`DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperr.ErrNotFound
	}

	return nil
}

// MarkProcessing is a compare-and-set from uploaded to processing. Two
// concurrent callers cannot both succeed; the loser gets ErrInvalidState.
func (p *Postgres) MarkProcessing(id, jobRef string) error {
	query := `
	UPDATE videos
	SET status = 'processing', transcription_job = $2, updated_at = CURRENT_TIMESTAMP
	WHERE id = $1 AND status = 'uploaded'
	`

	return p.transition(id, query, jobRef)
}

func (p *Postgres) SetTranscriptionJob(id, jobRef string) error {
	res, err := p.Db.Exec(`UPDATE videos SET transcription_job = $2 WHERE id = $1`, id, jobRef)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperr.ErrNotFound
	}

	return nil
}

func (p *Postgres) CompleteTranscription(id, transcript string) error {
	query := `
	UPDATE videos
	SET status = 'transcribed', transcript = $2, updated_at = CURRENT_TIMESTAMP
	WHERE id = $1 AND status = 'processing'
	`

	return p.transition(id, query, transcript)
}

func (p *Postgres) FailTranscription(id string) error {
	query := `
	UPDATE videos
	SET status = 'failed', transcript = '', updated_at = CURRENT_TIMESTAMP
	WHERE id = $1 AND status = 'processing'
	`

	return p.transition(id, query)
}

// transition runs a guarded status update. Zero rows affected means either
// the video is gone (ErrNotFound) or it is not in the expected state
// (ErrInvalidState).
func (p *Postgres) transition(id, query string, args ...interface{}) error {
	res, err := p.Db.Exec(query, append([]interface{}{id}, args...)...)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	var status string
	err = p.Db.QueryRow(`SELECT status FROM videos WHERE id = $1`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.ErrNotFound
	}
	if err != nil {
		return err
	}

	return apperr.ErrInvalidState
}

func (p *Postgres) SetSummary(id, summary string) error {
	res, err := p.Db.Exec(`UPDATE videos SET summary = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $1`, id, summary)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperr.ErrNotFound
	}

	return nil
}

func (p *Postgres) FailStaleProcessing(olderThan time.Duration) (int64, error) {
	query := `
	UPDATE videos
	SET status = 'failed', transcript = '', updated_at = CURRENT_TIMESTAMP
	WHERE status = 'processing' AND updated_at < NOW() - $1::interval
	`

	res, err := p.Db.Exec(query, fmt.Sprintf("%d seconds", int64(olderThan.Seconds())))
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}
