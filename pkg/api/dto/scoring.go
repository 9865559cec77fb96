package dto

import (
	"encoding/json"
	"errors"
	"io"
	"time"
)

var (
	// ReadError is returned, when a request body couldn't be read while parsing.
	ReadError = errors.New("couldn't read the request body")
	// ParsingError is returned, when an error occurred during the unmarshalling of a request body.
	ParsingError = errors.New("couldn't parse the request body properly")
)

// Credentials carries the name and password of a registration or login
// request.
type Credentials struct {
	// Name is the unique display name of the participant.
	Name string `json:"name"`
	// Password is the plain text password. It is hashed before storage
	// and never persisted as-is.
	Password string `json:"password"`
}

// TokenResponse carries an issued session token.
type TokenResponse struct {
	Token string `json:"token"`
}

// Submission is the body of a flag submission.
type Submission struct {
	// Flag is the submitted secret value.
	Flag string `json:"flag"`
}

// SubmissionResponse is the outcome of a completed submission.
type SubmissionResponse struct {
	// Correct reports whether the submitted value matched the flag.
	Correct bool `json:"correct"`
	// PointsAwarded is the number of points granted by this call.
	PointsAwarded int `json:"pointsAwarded"`
	// FirstSolver reports whether this call claimed the first-solver
	// bonus.
	FirstSolver bool `json:"firstSolver"`
}

// LeaderboardEntry is one ranked row of a leaderboard response.
type LeaderboardEntry struct {
	ParticipantID string    `json:"participantId"`
	TotalPoints   int       `json:"totalPoints"`
	FirstSolveAt  time.Time `json:"firstSolveAt"`
	Rank          int       `json:"rank"`
}

// AttemptEntry is one row of the administrative submission audit log.
type AttemptEntry struct {
	ParticipantID string    `json:"participantId"`
	ChallengeID   string    `json:"challengeId"`
	Correct       bool      `json:"correct"`
	CreatedAt     time.Time `json:"createdAt"`
}

// ChallengeSummary is one published challenge of a track listing. It
// deliberately carries no flag digest.
type ChallengeSummary struct {
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Points      int    `json:"points"`
	HasLab      bool   `json:"hasLab"`
}

// Track is the body of a track creation request.
type Track struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

// Challenge is the body of a challenge creation request.
type Challenge struct {
	TrackSlug   string `json:"trackSlug"`
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Points      int    `json:"points"`
}

// Flag is the body of a flag configuration request.
type Flag struct {
	Flag string `json:"flag"`
}

// LabCommand is the body of a lab command request.
type LabCommand struct {
	Command string `json:"command"`
	Cwd     string `json:"cwd"`
}

// LabResponse is the outcome of an executed lab command.
type LabResponse struct {
	Output   string `json:"output"`
	Cwd      string `json:"cwd"`
	ExitCode int    `json:"exitCode"`
}

// parse parses the content of the given reader into the given value. If
// the parsing fails, then a corresponding error will be returned.
func parse(reader io.Reader, value interface{}) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return ReadError
	}
	err = json.Unmarshal(data, value)
	if err != nil {
		return ParsingError
	}
	return nil
}

// ParseCredentials parses the content of the given reader into a
// credentials object.
func ParseCredentials(reader io.Reader) (*Credentials, error) {
	var credentials Credentials
	if err := parse(reader, &credentials); err != nil {
		return nil, err
	}
	return &credentials, nil
}

// ParseSubmission parses the content of the given reader into a submission
// object.
func ParseSubmission(reader io.Reader) (*Submission, error) {
	var submission Submission
	if err := parse(reader, &submission); err != nil {
		return nil, err
	}
	return &submission, nil
}

// ParseTrack parses the content of the given reader into a track object.
func ParseTrack(reader io.Reader) (*Track, error) {
	var track Track
	if err := parse(reader, &track); err != nil {
		return nil, err
	}
	return &track, nil
}

// ParseChallenge parses the content of the given reader into a challenge
// object.
func ParseChallenge(reader io.Reader) (*Challenge, error) {
	var challenge Challenge
	if err := parse(reader, &challenge); err != nil {
		return nil, err
	}
	return &challenge, nil
}

// ParseFlag parses the content of the given reader into a flag object.
func ParseFlag(reader io.Reader) (*Flag, error) {
	var flag Flag
	if err := parse(reader, &flag); err != nil {
		return nil, err
	}
	return &flag, nil
}

// ParseLabCommand parses the content of the given reader into a lab
// command object.
func ParseLabCommand(reader io.Reader) (*LabCommand, error) {
	var command LabCommand
	if err := parse(reader, &command); err != nil {
		return nil, err
	}
	return &command, nil
}
