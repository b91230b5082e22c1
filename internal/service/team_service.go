package service

import (
	"errors"
	"strings"

	"devday_quiz_backend/internal/config"
	"devday_quiz_backend/internal/model"
	"devday_quiz_backend/internal/util"

	"gorm.io/gorm"
)

// TeamStore is the slice of the team repository the service needs.
type TeamStore interface {
	Create(t *model.Team) error
	FindByID(id string) (*model.Team, error)
	ListBySession(sessionID string) ([]model.Team, error)
}

// SessionLookup resolves sessions for join and leaderboard reads.
type SessionLookup interface {
	FindByID(id string) (*model.Session, error)
}

type TeamService struct {
	Teams    TeamStore
	Sessions SessionLookup
	Events   EventPublisher
	Cfg      *config.Config
}

func NewTeamService(teams TeamStore, sessions SessionLookup, events EventPublisher, cfg *config.Config) *TeamService {
	return &TeamService{Teams: teams, Sessions: sessions, Events: events, Cfg: cfg}
}

// Join registers a team in an active session and mints its capability
// token. Duplicate display names are allowed; identity is the team id.
func (s *TeamService) Join(sessionID, name string) (*model.Team, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, "", errors.New("team name is required")
	}

	session, err := s.Sessions.FindByID(sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", util.ErrSessionNotFound
		}
		return nil, "", err
	}
	if session.Status != model.SessionActive {
		return nil, "", util.ErrSessionNotActive
	}

	team := &model.Team{
		SessionID: sessionID,
		Name:      name,
	}
	if err := s.Teams.Create(team); err != nil {
		return nil, "", err
	}

	token, err := util.GenerateTeamToken(sessionID, team.ID, team.Name, s.Cfg.JWT.Secret)
	if err != nil {
		return nil, "", err
	}

	if s.Events != nil {
		s.Events.PublishSession(sessionID, Event{Type: EventTeam, Data: team})
	}
	return team, token, nil
}

// Leaderboard returns the session's teams ordered by score, ties broken
// by join time.
func (s *TeamService) Leaderboard(sessionID string) ([]model.Team, error) {
	if _, err := s.Sessions.FindByID(sessionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrSessionNotFound
		}
		return nil, err
	}
	return s.Teams.ListBySession(sessionID)
}

func (s *TeamService) Get(id string) (*model.Team, error) {
	team, err := s.Teams.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrTeamNotFound
		}
		return nil, err
	}
	return team, nil
}
