package planner

import (
	"context"
	"time"

	"github.com/earnor/look-ahead-planning/core/model"
)

// Store is the persistence the planner depends on. infra/store provides the
// SQLite implementation; tests use in-memory fakes.
//
// Schedule versions are append-only: SaveSolution assigns latest+1 and
// returns it. LatestSolution returns nil without error when the project has
// no schedule yet. Lookups for missing projects or versions return errors
// wrapping ErrProjectNotFound and ErrSolutionNotFound.
type Store interface {
	CreateProject(ctx context.Context, name string, start, targetEnd time.Time, modules []model.Module, edges []model.Edge) (int64, error)
	Project(ctx context.Context, id int64) (model.Project, error)
	ProjectByName(ctx context.Context, name string) (model.Project, error)
	Projects(ctx context.Context) ([]model.Project, error)

	LatestSolution(ctx context.Context, projectID int64) (*model.Solution, error)
	SolutionByVersion(ctx context.Context, projectID int64, version int) (*model.Solution, error)
	SaveSolution(ctx context.Context, projectID int64, sol model.Solution) (int, error)

	AddDelay(ctx context.Context, projectID int64, rec model.DelayRecord) error
	PendingDelays(ctx context.Context, projectID int64) ([]model.DelayRecord, error)
	Delays(ctx context.Context, projectID int64) ([]model.DelayRecord, error)
	MarkDelaysApplied(ctx context.Context, ids []string, version int) error

	Close() error
}
