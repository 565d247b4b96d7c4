// Package admin orchestrates remote snapshot-index rebuilds across the whole
// team x role matrix.
package admin

import (
	"context"
	"log"
	"time"

	"cricket-rank-lab/internal/domain"
)

// DefaultDelay is the pause between consecutive rebuild calls: the remote
// service recomputes a full index per call, so the walk stays sequential and
// gentle.
const DefaultDelay = 500 * time.Millisecond

// RebuildService is the subset of the remote ranking client the rebuilder
// depends on.
type RebuildService interface {
	RefreshHistoricalRankings(ctx context.Context, role domain.Role, teamID domain.TeamID) (*domain.RebuildResult, error)
}

// CellStatus reports the rebuild outcome for one matrix cell.
type CellStatus struct {
	Cell           domain.Cell
	Success        bool
	TotalSnapshots int
	Message        string
}

// Rebuilder walks the matrix and triggers per-cell snapshot rebuilds.
type Rebuilder struct {
	service RebuildService
	matrix  []domain.Cell
	delay   time.Duration
	logger  *log.Logger
}

// Options contains configuration for creating a Rebuilder.
type Options struct {
	Service RebuildService
	Matrix  []domain.Cell // defaults to domain.DefaultMatrix()
	Delay   time.Duration // defaults to DefaultDelay
	Logger  *log.Logger
}

// New creates a new Rebuilder.
func New(opts Options) *Rebuilder {
	matrix := opts.Matrix
	if matrix == nil {
		matrix = domain.DefaultMatrix()
	}

	delay := opts.Delay
	if delay == 0 {
		delay = DefaultDelay
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Rebuilder{
		service: opts.Service,
		matrix:  matrix,
		delay:   delay,
		logger:  logger,
	}
}

// Rebuild triggers the rebuild for a single cell.
func (r *Rebuilder) Rebuild(ctx context.Context, cell domain.Cell) CellStatus {
	result, err := r.service.RefreshHistoricalRankings(ctx, cell.Role, cell.Team)
	if err != nil {
		r.logger.Printf("admin: rebuild %s/%s failed: %v", cell.Team, cell.Role, err)
		return CellStatus{Cell: cell, Success: false, Message: err.Error()}
	}

	return CellStatus{
		Cell:           cell,
		Success:        result.Success,
		TotalSnapshots: result.TotalSnapshots,
		Message:        result.Message,
	}
}

// RebuildAll walks the matrix sequentially with an inter-call delay and
// collects per-cell statuses. Individual failures are recorded and never
// abort the walk; only context cancellation stops it early.
func (r *Rebuilder) RebuildAll(ctx context.Context) ([]CellStatus, error) {
	statuses := make([]CellStatus, 0, len(r.matrix))

	for i, cell := range r.matrix {
		if i > 0 {
			select {
			case <-ctx.Done():
				return statuses, ctx.Err()
			case <-time.After(r.delay):
			}
		}

		statuses = append(statuses, r.Rebuild(ctx, cell))
	}

	return statuses, nil
}
