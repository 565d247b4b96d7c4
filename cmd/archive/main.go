// Package main backfills the timeline archive: it walks the snapshot index
// of each (team, role) cell, fetches every snapshot's detail from the
// ranking service and writes all per-player timeline points to ClickHouse.
// The dashboard archives lazily as profiles are viewed; this command does the
// same work eagerly for the whole matrix.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cricket-rank-lab/internal/domain"
	"cricket-rank-lab/internal/rankingapi"
	"cricket-rank-lab/internal/storage"
	chstore "cricket-rank-lab/internal/storage/clickhouse"
	"cricket-rank-lab/internal/storage/memory"
	"cricket-rank-lab/internal/storage/migrations"
)

func main() {
	// Parse flags
	baseURL := flag.String("ranking-base-url", os.Getenv("RANKING_BASE_URL"), "Base URL of the ranking service")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	team := flag.String("team", "", "Restrict to one team ID (default: all teams)")
	role := flag.String("role", "", "Restrict to one role (default: all roles)")
	delay := flag.Duration("delay", 200*time.Millisecond, "Delay between snapshot detail fetches")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage (dry run)")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[archive] ", log.LstdFlags|log.Lshortfile)

	if *baseURL == "" {
		logger.Fatal("--ranking-base-url is required")
	}
	if !*useMemory && *clickhouseDSN == "" {
		logger.Fatal("--clickhouse-dsn is required (use --use-memory for a dry run)")
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, stopping...", sig)
		cancel()
	}()

	// Timeline store
	var timeline storage.TimelineStore
	if *useMemory {
		timeline = memory.NewTimelineStore()
	} else {
		conn, err := migrations.RunClickhouseMigrations(ctx, *clickhouseDSN)
		if err != nil {
			logger.Fatalf("Failed to connect to ClickHouse: %v", err)
		}
		defer conn.Close()
		timeline = chstore.NewTimelineStore(conn)
	}

	client := rankingapi.NewClient(*baseURL)

	cells := selectCells(*team, *role)
	if len(cells) == 0 {
		logger.Fatal("No matching cells. Check --team and --role values")
	}

	start := time.Now()
	var totalPoints, totalSnapshots int

	for _, cell := range cells {
		points, snapshots, err := archiveCell(ctx, logger, client, timeline, cell, *delay)
		if err != nil {
			if ctx.Err() != nil {
				logger.Println("Archive interrupted")
				return
			}
			logger.Printf("Cell %s/%s failed: %v", cell.Team, cell.Role, err)
			continue
		}
		totalPoints += points
		totalSnapshots += snapshots
	}

	logger.Printf("Archive complete in %v: %d points from %d snapshots across %d cells",
		time.Since(start), totalPoints, totalSnapshots, len(cells))
}

// selectCells returns the matrix cells matching the optional team/role filters.
func selectCells(team, role string) []domain.Cell {
	var cells []domain.Cell
	for _, cell := range domain.DefaultMatrix() {
		if team != "" && cell.Team != domain.TeamID(team) {
			continue
		}
		if role != "" && cell.Role != domain.Role(role) {
			continue
		}
		cells = append(cells, cell)
	}
	return cells
}

// archiveCell walks one cell's snapshot index and archives every player's
// point from every snapshot. Already-archived snapshots are skipped via the
// store's duplicate detection.
func archiveCell(ctx context.Context, logger *log.Logger, client *rankingapi.Client, timeline storage.TimelineStore, cell domain.Cell, delay time.Duration) (int, int, error) {
	index, err := client.GetHistoricalRankings(ctx, cell.Role, cell.Team)
	if err != nil {
		return 0, 0, err
	}

	logger.Printf("Cell %s/%s: %d snapshots", cell.Team, cell.Role, index.TotalSnapshots)

	var points int
	for i, snap := range index.Snapshots {
		select {
		case <-ctx.Done():
			return points, i, ctx.Err()
		default:
		}

		details, err := client.GetSnapshotDetails(ctx, snap.SnapshotID)
		if err != nil {
			logger.Printf("Snapshot %s unavailable, skipping: %v", snap.SnapshotID, err)
			continue
		}

		batch := make([]*domain.TimelinePoint, 0, len(details.Rankings))
		for rank, entry := range details.Rankings {
			batch = append(batch, &domain.TimelinePoint{
				TeamID:     cell.Team,
				Role:       cell.Role,
				PlayerID:   entry.PlayerID,
				SnapshotID: snap.SnapshotID,
				Date:       snap.FirstMatchDate,
				Rating:     entry.Points,
				Rank:       rank + 1,
			})
		}

		if err := timeline.InsertBulk(ctx, batch); err != nil {
			if errors.Is(err, storage.ErrDuplicateKey) {
				continue // snapshot already archived
			}
			return points, i, err
		}
		points += len(batch)

		if delay > 0 && i < len(index.Snapshots)-1 {
			select {
			case <-ctx.Done():
				return points, i + 1, ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return points, len(index.Snapshots), nil
}
