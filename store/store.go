// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/danielhkuo/livepoll/models"
)

// ErrConflict reports a uniqueness violation other than a duplicate vote
var ErrConflict = errors.New("conflict")

// SQLStore is the session store backed by database/sql.
// Queries use $n placeholders, which both lib/pq and modernc sqlite accept.
type SQLStore struct {
	db      *sql.DB
	timeout time.Duration
}

func New(db *sql.DB, timeout time.Duration) *SQLStore {
	return &SQLStore{db: db, timeout: timeout}
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *SQLStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// isUniqueViolation recognizes unique constraint failures from both drivers
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}

// Sessions

const sessionColumns = `id, code, owner_id, owner_name, title, description,
	is_active, current_slide_index, created_at`

func scanSession(row rowScanner) (models.Session, error) {
	var sess models.Session
	err := row.Scan(&sess.ID, &sess.Code, &sess.OwnerID, &sess.OwnerName, &sess.Title,
		&sess.Description, &sess.IsActive, &sess.CurrentSlideIndex, &sess.CreatedAt)
	return sess, err
}

func (s *SQLStore) GetSession(ctx context.Context, id int64) (models.Session, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	sess, err := scanSession(s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Session{}, fmt.Errorf("session %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return models.Session{}, fmt.Errorf("failed to query session: %w", err)
	}
	return sess, nil
}

// FindSessionByCode returns models.ErrNotFound for unknown codes
func (s *SQLStore) FindSessionByCode(ctx context.Context, code string) (models.Session, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	sess, err := scanSession(s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE code = $1`, code))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Session{}, fmt.Errorf("session %s: %w", code, models.ErrNotFound)
	}
	if err != nil {
		return models.Session{}, fmt.Errorf("failed to query session: %w", err)
	}
	return sess, nil
}

func (s *SQLStore) CodeExists(ctx context.Context, code string) (bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM sessions WHERE code = $1)`, code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check session code: %w", err)
	}
	return exists, nil
}

// CreateSession inserts the session and all of its polls in one transaction.
// IDs are written back into sess and polls on success.
func (s *SQLStore) CreateSession(ctx context.Context, sess *models.Session, polls []models.Poll) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = time.Now().UTC()
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO sessions (code, owner_id, owner_name, title, description, is_active, current_slide_index, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, sess.Code, sess.OwnerID, sess.OwnerName, sess.Title, sess.Description,
		sess.IsActive, sess.CurrentSlideIndex, sess.CreatedAt).Scan(&sess.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("session code %s: %w", sess.Code, ErrConflict)
		}
		return fmt.Errorf("failed to insert session: %w", err)
	}

	for i := range polls {
		polls[i].SessionID = sess.ID
		if err := insertPoll(ctx, tx, &polls[i]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit session: %w", err)
	}
	return nil
}

// UpdateSession persists the mutable session fields (last writer wins)
func (s *SQLStore) UpdateSession(ctx context.Context, sess models.Session) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res, err := s.db.ExecContext(ctx, `
		UPDATE sessions
		SET title = $1, description = $2, is_active = $3, current_slide_index = $4
		WHERE id = $5
	`, sess.Title, sess.Description, sess.IsActive, sess.CurrentSlideIndex, sess.ID)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("session %d: %w", sess.ID, models.ErrNotFound)
	}
	return nil
}

// DeleteSession removes the session; polls, participants and votes cascade
func (s *SQLStore) DeleteSession(ctx context.Context, id int64) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("session %d: %w", id, models.ErrNotFound)
	}
	return nil
}

// ListSessions returns sessions newest first. An empty ownerID lists every
// session; limit <= 0 means no limit.
func (s *SQLStore) ListSessions(ctx context.Context, ownerID string, limit int) ([]models.Session, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + sessionColumns + ` FROM sessions`
	var args []any
	if ownerID != "" {
		args = append(args, ownerID)
		query += fmt.Sprintf(` WHERE owner_id = $%d`, len(args))
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []models.Session{}
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// Polls

const pollColumns = `p.id, p.session_id, p.slide_number, p.question, p.poll_type, p.options,
	p.allow_multiple, p.anonymous, p.show_results, p.image_url,
	(SELECT COUNT(*) FROM votes v WHERE v.poll_id = p.id)`

func scanPoll(row rowScanner) (models.Poll, error) {
	var p models.Poll
	var optionsJSON []byte
	var imageURL sql.NullString
	err := row.Scan(&p.ID, &p.SessionID, &p.SlideNumber, &p.Question, &p.PollType, &optionsJSON,
		&p.Settings.AllowMultiple, &p.Settings.Anonymous, &p.Settings.ShowResults, &imageURL,
		&p.TotalVotes)
	if err != nil {
		return models.Poll{}, err
	}
	if err := json.Unmarshal(optionsJSON, &p.Options); err != nil {
		return models.Poll{}, fmt.Errorf("failed to decode poll options: %w", err)
	}
	if p.Options == nil {
		p.Options = []string{}
	}
	if imageURL.Valid {
		p.ImageURL = &imageURL.String
	}
	return p, nil
}

func insertPoll(ctx context.Context, q queryer, p *models.Poll) error {
	options := p.Options
	if options == nil {
		options = []string{}
	}
	optionsJSON, err := json.Marshal(options)
	if err != nil {
		return fmt.Errorf("failed to encode poll options: %w", err)
	}

	err = q.QueryRowContext(ctx, `
		INSERT INTO polls (session_id, slide_number, question, poll_type, options,
			allow_multiple, anonymous, show_results, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, p.SessionID, p.SlideNumber, p.Question, p.PollType, string(optionsJSON),
		p.Settings.AllowMultiple, p.Settings.Anonymous, p.Settings.ShowResults, p.ImageURL).Scan(&p.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("slide %d: %w", p.SlideNumber, ErrConflict)
		}
		return fmt.Errorf("failed to insert poll: %w", err)
	}
	p.Options = options
	return nil
}

// CreatePoll adds a single poll to an existing session. Session creation
// inserts its polls in the same transaction instead; this serves callers
// that attach slides afterwards.
func (s *SQLStore) CreatePoll(ctx context.Context, p *models.Poll) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return insertPoll(ctx, s.db, p)
}

func (s *SQLStore) GetPoll(ctx context.Context, id int64) (models.Poll, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	p, err := scanPoll(s.db.QueryRowContext(ctx,
		`SELECT `+pollColumns+` FROM polls p WHERE p.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Poll{}, fmt.Errorf("poll %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return models.Poll{}, fmt.Errorf("failed to query poll: %w", err)
	}
	return p, nil
}

// ListPollsBySession returns the session's polls ordered by slide number
func (s *SQLStore) ListPollsBySession(ctx context.Context, sessionID int64) ([]models.Poll, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+pollColumns+` FROM polls p WHERE p.session_id = $1 ORDER BY p.slide_number`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query polls: %w", err)
	}
	defer rows.Close()

	polls := []models.Poll{}
	for rows.Next() {
		p, err := scanPoll(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan poll: %w", err)
		}
		polls = append(polls, p)
	}
	return polls, rows.Err()
}

// Participants

const participantColumns = `id, session_id, identifier, is_online, joined_at`

func scanParticipant(row rowScanner) (models.Participant, error) {
	var p models.Participant
	err := row.Scan(&p.ID, &p.SessionID, &p.Identifier, &p.IsOnline, &p.JoinedAt)
	return p, err
}

func (s *SQLStore) CreateParticipant(ctx context.Context, p *models.Participant) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if p.JoinedAt.IsZero() {
		p.JoinedAt = time.Now().UTC()
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO participants (session_id, identifier, is_online, joined_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, p.SessionID, p.Identifier, p.IsOnline, p.JoinedAt).Scan(&p.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("participant identifier: %w", ErrConflict)
		}
		return fmt.Errorf("failed to insert participant: %w", err)
	}
	return nil
}

func (s *SQLStore) GetParticipant(ctx context.Context, id int64) (models.Participant, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	p, err := scanParticipant(s.db.QueryRowContext(ctx,
		`SELECT `+participantColumns+` FROM participants WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Participant{}, fmt.Errorf("participant %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return models.Participant{}, fmt.Errorf("failed to query participant: %w", err)
	}
	return p, nil
}

func (s *SQLStore) FindParticipantByIdentifier(ctx context.Context, identifier string) (models.Participant, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	p, err := scanParticipant(s.db.QueryRowContext(ctx,
		`SELECT `+participantColumns+` FROM participants WHERE identifier = $1`, identifier))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Participant{}, fmt.Errorf("participant %s: %w", identifier, models.ErrNotFound)
	}
	if err != nil {
		return models.Participant{}, fmt.Errorf("failed to query participant: %w", err)
	}
	return p, nil
}

func (s *SQLStore) UpdateParticipant(ctx context.Context, p models.Participant) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res, err := s.db.ExecContext(ctx,
		`UPDATE participants SET is_online = $1 WHERE id = $2`, p.IsOnline, p.ID)
	if err != nil {
		return fmt.Errorf("failed to update participant: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("participant %d: %w", p.ID, models.ErrNotFound)
	}
	return nil
}

func (s *SQLStore) CountOnlineParticipants(ctx context.Context, sessionID int64) (int, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM participants WHERE session_id = $1 AND is_online = $2
	`, sessionID, true).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count participants: %w", err)
	}
	return count, nil
}

// Votes

// CreateVote inserts the vote. The (poll_id, participant_id) unique
// constraint turns concurrent duplicates into models.ErrDuplicateVote.
func (s *SQLStore) CreateVote(ctx context.Context, v *models.Vote) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if v.VotedAt.IsZero() {
		v.VotedAt = time.Now().UTC()
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO votes (poll_id, participant_id, answer, voted_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, v.PollID, v.ParticipantID, v.Answer, v.VotedAt).Scan(&v.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("poll %d participant %d: %w", v.PollID, v.ParticipantID, models.ErrDuplicateVote)
		}
		return fmt.Errorf("failed to insert vote: %w", err)
	}
	return nil
}

// ListVotesByPoll returns votes in submission order
func (s *SQLStore) ListVotesByPoll(ctx context.Context, pollID int64) ([]models.Vote, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, poll_id, participant_id, answer, voted_at
		FROM votes
		WHERE poll_id = $1
		ORDER BY id
	`, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to query votes: %w", err)
	}
	defer rows.Close()

	votes := []models.Vote{}
	for rows.Next() {
		var v models.Vote
		if err := rows.Scan(&v.ID, &v.PollID, &v.ParticipantID, &v.Answer, &v.VotedAt); err != nil {
			return nil, fmt.Errorf("failed to scan vote: %w", err)
		}
		votes = append(votes, v)
	}
	return votes, rows.Err()
}

func (s *SQLStore) CountVotesBySession(ctx context.Context, sessionID int64) (int, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM votes v
		JOIN polls p ON p.id = v.poll_id
		WHERE p.session_id = $1
	`, sessionID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count votes: %w", err)
	}
	return count, nil
}
