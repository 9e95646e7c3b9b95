package models

import "time"

// Record types returned by a record check
const (
	RecordTypeFirst  = "first"
	RecordTypeRepeat = "repeat"
)

// MemoryItem is a verse or passage participants can memorize
type MemoryItem struct {
	ID        int64     `json:"id"`
	Reference string    `json:"reference"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// VerseRecord is one completion of a memory item by a user.
// Occurrence is 1 for the first completion of the pair, 2 for the next, and so on.
type VerseRecord struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	MemoryItemID  int64     `json:"memory_item_id"`
	Occurrence    int       `json:"occurrence"`
	PointsAwarded int       `json:"points_awarded"`
	CreatedAt     time.Time `json:"created_at"`
}

// SpendRecord is a redemption of points. Undone records stay in the ledger but
// no longer count against the balance.
type SpendRecord struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"user_id"`
	PointsSpent int        `json:"points_spent"`
	Description string     `json:"description"`
	Undone      bool       `json:"undone"`
	UndoneAt    *time.Time `json:"undone_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// BonusRecord is a manual adjustment; PointsAwarded may be negative
type BonusRecord struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	PointsAwarded int       `json:"points_awarded"`
	Reason        string    `json:"reason"`
	CreatedAt     time.Time `json:"created_at"`
}

// RecordInfo describes prior completions of a memory item by a user
type RecordInfo struct {
	UserID       int64  `json:"user_id"`
	MemoryItemID int64  `json:"memory_item_id"`
	RecordType   string `json:"record_type"`
	Count        int    `json:"count"`
	HasRecorded  bool   `json:"has_recorded"`
	IsFirst      bool   `json:"is_first"`
}

// NewRecordInfo derives the first/repeat flags from a prior record count
func NewRecordInfo(userID, memoryItemID int64, count int) RecordInfo {
	info := RecordInfo{
		UserID:       userID,
		MemoryItemID: memoryItemID,
		Count:        count,
		HasRecorded:  count > 0,
		IsFirst:      count == 0,
		RecordType:   RecordTypeRepeat,
	}
	if info.IsFirst {
		info.RecordType = RecordTypeFirst
	}
	return info
}
