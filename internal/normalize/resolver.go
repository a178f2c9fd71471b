package normalize

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sportfeed/aggregator/internal/pkg/models"
)

// autoLearnThreshold is the fuzzy-match bar below which aliases are never
// auto-created; they must be added manually (spec §4.1).
const autoLearnThreshold = 0.85

// TeamStore is the subset of the store the resolver needs. Implementations
// must make FindAlias/FindByNormalizedName/AllTeams consistent within one
// invocation; the resolver caches AllTeams per Resolver instance (spec's
// Design Notes: "cache the teams table per invocation").
type TeamStore interface {
	FindAlias(ctx context.Context, alias, source string) (teamID int64, ok bool, err error)
	FindByNormalizedName(ctx context.Context, normalizedName string) (teamID int64, ok bool, err error)
	AllTeams(ctx context.Context) ([]models.Team, error)
	CreateTeam(ctx context.Context, normalizedName string) (teamID int64, err error)
	CreateAlias(ctx context.Context, teamID int64, alias, source string) error
}

// Resolver resolves (raw name, source) pairs to team ids, learning aliases
// as it goes (spec §4.1).
type Resolver struct {
	store TeamStore
	log   *slog.Logger

	teamsCache     []models.Team
	teamsCacheDone bool
}

// NewResolver builds a Resolver backed by store. The teams table is
// fetched lazily on first fuzzy-match need and cached for the Resolver's
// lifetime (normally one job invocation).
func NewResolver(store TeamStore, log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{store: store, log: log}
}

// FindOrCreateTeam implements the ordered resolution of spec §4.1. It
// never errors on normal input; it only surfaces store-layer failures.
func (r *Resolver) FindOrCreateTeam(ctx context.Context, name, source string) (int64, error) {
	// 1. Exact alias hit on (name, source).
	if teamID, ok, err := r.store.FindAlias(ctx, name, source); err != nil {
		return 0, fmt.Errorf("normalize: find alias: %w", err)
	} else if ok {
		return teamID, nil
	}

	normalized := Normalize(name)

	// 2. Case-insensitive match of normalized name against canonical teams.name.
	if teamID, ok, err := r.store.FindByNormalizedName(ctx, normalized); err != nil {
		return 0, fmt.Errorf("normalize: find by name: %w", err)
	} else if ok {
		if err := r.createAliasIdempotent(ctx, teamID, name, source); err != nil {
			return 0, err
		}
		return teamID, nil
	}

	// 3. Fuzzy match over all teams with combined similarity >= 0.85.
	teams, err := r.allTeams(ctx)
	if err != nil {
		return 0, fmt.Errorf("normalize: load teams: %w", err)
	}
	bestID, bestScore := int64(0), 0.0
	for _, t := range teams {
		score := Similarity(normalized, t.Name)
		if score > bestScore {
			bestScore, bestID = score, t.ID
		}
	}
	if bestScore >= autoLearnThreshold {
		r.log.Info("auto-learned team alias",
			"alias", name, "source", source, "team_id", bestID, "score", bestScore)
		if err := r.createAliasIdempotent(ctx, bestID, name, source); err != nil {
			return 0, err
		}
		return bestID, nil
	}

	// 4. Otherwise insert a new team and alias.
	teamID, err := r.store.CreateTeam(ctx, normalized)
	if err != nil {
		return 0, fmt.Errorf("normalize: create team: %w", err)
	}
	if err := r.createAliasIdempotent(ctx, teamID, name, source); err != nil {
		return 0, err
	}
	r.invalidateTeamsCache()
	return teamID, nil
}

// createAliasIdempotent swallows duplicate-alias insert conflicts, per
// spec §4.1 ("duplicate-alias insertions are swallowed").
func (r *Resolver) createAliasIdempotent(ctx context.Context, teamID int64, alias, source string) error {
	if err := r.store.CreateAlias(ctx, teamID, alias, source); err != nil {
		if isDuplicateAlias(err) {
			return nil
		}
		return fmt.Errorf("normalize: create alias: %w", err)
	}
	return nil
}

// isDuplicateAlias recognizes a unique-constraint violation on
// (alias, source) across the store implementations this module ships.
func isDuplicateAlias(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique")
}

func (r *Resolver) allTeams(ctx context.Context) ([]models.Team, error) {
	if r.teamsCacheDone {
		return r.teamsCache, nil
	}
	teams, err := r.store.AllTeams(ctx)
	if err != nil {
		return nil, err
	}
	r.teamsCache = teams
	r.teamsCacheDone = true
	return teams, nil
}

func (r *Resolver) invalidateTeamsCache() {
	r.teamsCacheDone = false
	r.teamsCache = nil
}

// MatchTeamNames implements the helper the Event Matcher uses (spec §4.2):
// 1 if canonical forms coincide, otherwise the max of raw-name similarity
// and canonical-name similarity.
func MatchTeamNames(a, b string) float64 {
	if Normalize(a) == Normalize(b) {
		return 1
	}
	raw := Similarity(a, b)
	canon := Similarity(Normalize(a), Normalize(b))
	if canon > raw {
		return canon
	}
	return raw
}
