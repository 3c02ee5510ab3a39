package services

import (
	"context"
	stderrors "errors"

	"github.com/google/uuid"
	"github.com/typespeed/typespeed/internal/errors"
	"github.com/typespeed/typespeed/internal/highlight"
	"github.com/typespeed/typespeed/internal/logger"
	"github.com/typespeed/typespeed/internal/models"
	"github.com/typespeed/typespeed/internal/repository"
	"github.com/typespeed/typespeed/internal/session"
	"github.com/typespeed/typespeed/internal/snippet"
)

// StartSessionRequest selects a snippet source. A zero FileID picks a random
// file, optionally constrained by language.
type StartSessionRequest struct {
	FileID   int64  `json:"file_id"`
	Language string `json:"language"`
}

// StartedSession is the client view of a freshly created session.
type StartedSession struct {
	ID       string            `json:"id"`
	FileID   int64             `json:"file_id"`
	Path     string            `json:"path"`
	Language string            `json:"language"`
	Snippet  string            `json:"snippet"`
	Tokens   []highlight.Token `json:"tokens"`
	Cursor   int               `json:"cursor"`
	Length   int               `json:"length"`
	State    string            `json:"state"`
}

// SessionView is the client view of an existing session.
type SessionView struct {
	ID        string          `json:"id"`
	Path      string          `json:"path"`
	Language  string          `json:"language"`
	Snippet   string          `json:"snippet"`
	Positions []string        `json:"positions"`
	Metrics   session.Metrics `json:"metrics"`
}

// SessionService orchestrates the in-memory typing sessions and their
// persisted records.
type SessionService interface {
	Start(ctx context.Context, profileID int64, req StartSessionRequest) (*StartedSession, error)
	Get(ctx context.Context, profileID int64, id string) (*SessionView, error)
	Keystroke(ctx context.Context, profileID int64, id string, typed rune) (session.Metrics, error)
	Backspace(ctx context.Context, profileID int64, id string) (session.Metrics, bool, error)
	Reset(ctx context.Context, profileID int64, id string) (*SessionView, error)
	Metrics(ctx context.Context, profileID int64, id string) (session.Metrics, error)
	Complete(ctx context.Context, profileID int64, id string) (*models.SessionRecord, error)
}

type sessionService struct {
	manager      *session.Manager
	fileRepo     repository.FileRepository
	recordRepo   repository.RecordRepository
	selector     *snippet.Selector
	opts         []session.Option
	historyLimit int
}

// NewSessionService creates a new SessionService. Session options (burst
// window, clock) are applied to every session it creates.
func NewSessionService(
	manager *session.Manager,
	fileRepo repository.FileRepository,
	recordRepo repository.RecordRepository,
	selector *snippet.Selector,
	historyLimit int,
	opts ...session.Option,
) SessionService {
	return &sessionService{
		manager:      manager,
		fileRepo:     fileRepo,
		recordRepo:   recordRepo,
		selector:     selector,
		opts:         opts,
		historyLimit: historyLimit,
	}
}

func (s *sessionService) Start(ctx context.Context, profileID int64, req StartSessionRequest) (*StartedSession, error) {
	log := logger.FromContext(ctx)
	log.Debug("starting session: profile_id=%d, file_id=%d, language=%s", profileID, req.FileID, req.Language)

	var file *models.CodeFile
	var err error
	if req.FileID != 0 {
		file, err = s.fileRepo.Get(ctx, req.FileID)
	} else {
		file, err = s.fileRepo.Random(ctx, req.Language)
	}
	if err != nil {
		log.Error("failed to load file: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if file == nil {
		if req.FileID != 0 {
			return nil, errors.NewNotFoundError("file", req.FileID)
		}
		return nil, errors.NewNotFoundError("file", "no scanned files match")
	}

	text, err := s.selector.Select(file.Content)
	if err != nil {
		if stderrors.Is(err, snippet.ErrNoContent) {
			return nil, errors.NewValidationError("file", "no typable content")
		}
		return nil, errors.NewInternalError(err)
	}

	sess, err := session.New(uuid.NewString(), profileID, text, s.opts...)
	if err != nil {
		return nil, errors.NewValidationError("snippet", err.Error())
	}
	sess.FileID = file.ID
	sess.Language = file.Language
	sess.Path = file.Path
	s.manager.Put(sess)

	log.Info("session started: id=%s, path=%s, length=%d", sess.ID, file.Path, sess.Length())
	return &StartedSession{
		ID:       sess.ID,
		FileID:   file.ID,
		Path:     file.Path,
		Language: file.Language,
		Snippet:  text,
		Tokens:   highlight.Tokenize(text, file.Language),
		Cursor:   sess.Cursor(),
		Length:   sess.Length(),
		State:    sess.State().String(),
	}, nil
}

// lookup fetches a session and enforces ownership. Foreign sessions are
// reported as not found, never as forbidden.
func (s *sessionService) lookup(profileID int64, id string) (*session.Session, error) {
	sess, ok := s.manager.Get(id)
	if !ok || sess.ProfileID != profileID {
		return nil, errors.NewNotFoundError("session", id)
	}
	return sess, nil
}

func (s *sessionService) Get(ctx context.Context, profileID int64, id string) (*SessionView, error) {
	sess, err := s.lookup(profileID, id)
	if err != nil {
		return nil, err
	}
	return viewOf(sess), nil
}

func (s *sessionService) Keystroke(ctx context.Context, profileID int64, id string, typed rune) (session.Metrics, error) {
	sess, err := s.lookup(profileID, id)
	if err != nil {
		return session.Metrics{}, err
	}
	m, err := sess.Keystroke(typed)
	if err != nil {
		if stderrors.Is(err, session.ErrCompleted) {
			return m, errors.NewConflictError("session already completed")
		}
		return m, errors.NewInternalError(err)
	}
	return m, nil
}

func (s *sessionService) Backspace(ctx context.Context, profileID int64, id string) (session.Metrics, bool, error) {
	sess, err := s.lookup(profileID, id)
	if err != nil {
		return session.Metrics{}, false, err
	}
	m, moved := sess.Backspace()
	return m, moved, nil
}

func (s *sessionService) Reset(ctx context.Context, profileID int64, id string) (*SessionView, error) {
	sess, err := s.lookup(profileID, id)
	if err != nil {
		return nil, err
	}
	sess.Reset()
	return viewOf(sess), nil
}

func (s *sessionService) Metrics(ctx context.Context, profileID int64, id string) (session.Metrics, error) {
	sess, err := s.lookup(profileID, id)
	if err != nil {
		return session.Metrics{}, err
	}
	return sess.Metrics(), nil
}

// Complete persists the record of a finished session, prunes history beyond
// the configured limit, and drops the session from the registry.
func (s *sessionService) Complete(ctx context.Context, profileID int64, id string) (*models.SessionRecord, error) {
	log := logger.FromContext(ctx)
	sess, err := s.lookup(profileID, id)
	if err != nil {
		return nil, err
	}

	rec, ok := sess.Record()
	if !ok {
		return nil, errors.NewConflictError("session has not completed")
	}

	recID, err := s.recordRepo.Insert(ctx, rec)
	if err != nil {
		log.Error("failed to persist session record: %v", err)
		return nil, errors.NewInternalError(err)
	}
	rec.ID = recID

	if _, err := s.recordRepo.Prune(ctx, profileID, s.historyLimit); err != nil {
		// History pruning is best-effort; the record itself is safe.
		log.Warn("failed to prune session history: %v", err)
	}

	s.manager.Remove(id)
	log.Info("session completed: id=%s, net_wpm=%.1f, accuracy=%.1f%%", id, rec.NetWPM, rec.Accuracy)
	return &rec, nil
}

func viewOf(sess *session.Session) *SessionView {
	return &SessionView{
		ID:        sess.ID,
		Path:      sess.Path,
		Language:  sess.Language,
		Snippet:   sess.Snippet(),
		Positions: sess.PositionStates(),
		Metrics:   sess.Metrics(),
	}
}
