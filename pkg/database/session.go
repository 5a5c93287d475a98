package database

import (
	"time"
)

type ImportSession struct {
	ID               string             `json:"id"`
	Name             string             `json:"name"`
	FileName         string             `json:"fileName"`
	OriginalFileName string             `json:"originalFileName"`
	UploadDate       time.Time          `json:"uploadDate"`
	LastAccessDate   time.Time          `json:"lastAccessDate"`
	IsActive         bool               `json:"isActive"`
	AnalysisResult   *CsvAnalysisResult `json:"analysisResult"`
}

func (s *ImportSession) Clone() *ImportSession {
	if s == nil {
		return nil
	}

	cloned := *s
	cloned.AnalysisResult = s.AnalysisResult.Clone()

	return &cloned
}

// ManagerState is the persisted form of the import session manager.
type ManagerState struct {
	Sessions          []*ImportSession `json:"sessions"`
	ActiveSessionID   *string          `json:"activeSessionId"`
	NextSessionNumber int              `json:"nextSessionNumber"`
}
