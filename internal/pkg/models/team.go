package models

import "time"

// Team is the canonical record a raw name ultimately resolves to.
// Its Name is immutable after creation; aliases may be added, merged
// between teams, or learned automatically by the normalizer.
type Team struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

// TeamAlias maps a raw, source-specific spelling to a canonical team.
// Uniquely indexed on (Alias, Source).
type TeamAlias struct {
	ID     int64
	TeamID int64
	Alias  string
	Source string
}
