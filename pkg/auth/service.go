package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ctfops-io/scoring-api/pkg/db"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var (
	// NameTakenError is returned, when the chosen participant name is
	// already registered.
	NameTakenError = errors.New("participant name is already taken")
	// InvalidCredentialsError is returned, when name or password don't
	// match a registered participant.
	InvalidCredentialsError = errors.New("invalid name or password")
	// InactiveParticipantError is returned, when a deactivated
	// participant tries to log in.
	InactiveParticipantError = errors.New("participant is deactivated")
	// InvalidRegistrationError is returned, when name or password fail
	// validation.
	InvalidRegistrationError = errors.New("invalid registration data")
)

// Service registers participants and issues their session tokens.
type Service struct {
	db       db.DB
	sessions *SessionManager
}

// NewService wires the participant service.
func NewService(database db.DB, sessions *SessionManager) *Service {
	return &Service{db: database, sessions: sessions}
}

// Register creates a new active participant with a hashed password.
func (s *Service) Register(ctx context.Context, name, password string) (*db.Participant, error) {
	normalizedName := strings.TrimSpace(name)
	if normalizedName == "" || len(normalizedName) > 100 || len(password) < 8 {
		return nil, InvalidRegistrationError
	}
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Errorf("hashing the password of participant '%s' failed: %s", normalizedName, err.Error())
		return nil, InvalidRegistrationError
	}
	participant := &db.Participant{
		ID:           uuid.NewString(),
		Name:         normalizedName,
		PasswordHash: string(passwordHash),
		Active:       true,
		CreatedAt:    time.Now().UTC(),
	}
	err = s.db.CreateParticipant(ctx, participant)
	if err == db.DuplicateError {
		return nil, NameTakenError
	}
	if err != nil {
		return nil, err
	}
	return participant, nil
}

// Login verifies the credentials and issues a session token.
func (s *Service) Login(ctx context.Context, name, password string) (string, error) {
	participant, err := s.db.GetParticipantByName(ctx, strings.TrimSpace(name))
	if err != nil {
		return "", err
	}
	if participant == nil {
		return "", InvalidCredentialsError
	}
	if bcrypt.CompareHashAndPassword([]byte(participant.PasswordHash), []byte(password)) != nil {
		return "", InvalidCredentialsError
	}
	if !participant.Active {
		return "", InactiveParticipantError
	}
	return s.sessions.Issue(participant.ID, time.Now().UTC())
}
