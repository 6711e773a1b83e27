package storage

import (
	"encoding/json"
	"fmt"
	"os"

	"umrah-desk/api"
)

// Session is the operator state every command builds its RequestContext
// from: the access token and the organization being worked on.
type Session struct {
	AccessToken  string     `json:"access_token"`
	Organization SessionOrg `json:"selected_organization"`
	BranchID     int64      `json:"branch_id,omitempty"`
	OperatorID   int64      `json:"operator_id"`
	OperatorName string     `json:"operator_name,omitempty"`
	SavedAt      string     `json:"saved_at,omitempty"`
}

type SessionOrg struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (s *Session) RequestContext() api.RequestContext {
	return api.RequestContext{OrganizationID: s.Organization.ID, Token: s.AccessToken}
}

func LoadSession() (*Session, error) {
	path, err := SessionPath()
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("session path is a directory: %s", path)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var session Session
	if err := json.NewDecoder(file).Decode(&session); err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	return &session, nil
}

func SaveSession(session *Session) error {
	if _, err := ensureConfigDir(); err != nil {
		return err
	}
	path, err := SessionPath()
	if err != nil {
		return err
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(session)
}

func ClearSession() error {
	path, err := SessionPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return nil
}
