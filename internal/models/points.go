package models

import "time"

// Default settings applied when the settings row does not exist yet
const (
	DefaultPointsFirst  = 10
	DefaultPointsRepeat = 5
	DefaultBibleVersion = "KJV"
)

// Settings is the singleton program configuration row
type Settings struct {
	DefaultPointsFirst  int       `json:"default_points_first"`
	DefaultPointsRepeat int       `json:"default_points_repeat"`
	BibleVersion        string    `json:"bible_version"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// DefaultSettings returns the built-in settings
func DefaultSettings() Settings {
	return Settings{
		DefaultPointsFirst:  DefaultPointsFirst,
		DefaultPointsRepeat: DefaultPointsRepeat,
		BibleVersion:        DefaultBibleVersion,
	}
}

// PointsFor returns the award for a completion given how many came before it
func (s Settings) PointsFor(priorCount int) int {
	if priorCount == 0 {
		return s.DefaultPointsFirst
	}
	return s.DefaultPointsRepeat
}

// SettingsPatch carries the fields of a partial settings update. Nil fields are left unchanged.
type SettingsPatch struct {
	DefaultPointsFirst  *int    `json:"default_points_first"`
	DefaultPointsRepeat *int    `json:"default_points_repeat"`
	BibleVersion        *string `json:"bible_version"`
}

// Apply merges the patch into s
func (p SettingsPatch) Apply(s Settings) Settings {
	if p.DefaultPointsFirst != nil {
		s.DefaultPointsFirst = *p.DefaultPointsFirst
	}
	if p.DefaultPointsRepeat != nil {
		s.DefaultPointsRepeat = *p.DefaultPointsRepeat
	}
	if p.BibleVersion != nil {
		s.BibleVersion = *p.BibleVersion
	}
	return s
}

// PointsSummary is a user's balance derived from the ledger tables
type PointsSummary struct {
	UserID        int64  `json:"user_id"`
	Name          string `json:"name"`
	Role          Role   `json:"role"`
	MemoryPoints  int    `json:"memory_points"`
	BonusPoints   int    `json:"bonus_points"`
	TotalSpent    int    `json:"total_spent"`
	CurrentPoints int    `json:"current_points"`
}

// Ledger holds every point-affecting record for one user
type Ledger struct {
	Verses []VerseRecord
	Bonus  []BonusRecord
	Spends []SpendRecord
}

// Summary totals the ledger. Undone spends are excluded.
func (l Ledger) Summary() PointsSummary {
	var s PointsSummary
	for _, v := range l.Verses {
		s.MemoryPoints += v.PointsAwarded
	}
	for _, b := range l.Bonus {
		s.BonusPoints += b.PointsAwarded
	}
	for _, sp := range l.Spends {
		if !sp.Undone {
			s.TotalSpent += sp.PointsSpent
		}
	}
	s.CurrentPoints = s.MemoryPoints + s.BonusPoints - s.TotalSpent
	return s
}
