package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// backupTables lists the tables included in every export, in dependency order.
var backupTables = []string{
	"clients",
	"paper_items",
	"stock_entries",
	"orders",
	"audit_logs",
}

// DatabaseBackupJob exports every table to CSV under a timestamped directory
// and prunes exports older than the retention window.
type DatabaseBackupJob struct {
	Pool      *pgxpool.Pool
	Logger    *slog.Logger
	Dir       string
	Retention int
	clock     func() time.Time
}

// NewDatabaseBackupJob wires dependencies for the backup handler.
func NewDatabaseBackupJob(pool *pgxpool.Pool, logger *slog.Logger, dir string, retention int) *DatabaseBackupJob {
	return &DatabaseBackupJob{
		Pool:      pool,
		Logger:    logger,
		Dir:       dir,
		Retention: retention,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes database backup tasks.
func (j *DatabaseBackupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil {
		return errors.New("database backup: handler not configured")
	}
	var payload DatabaseBackupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	now := j.now()
	dir := filepath.Join(j.Dir, now.Format("20060102-150405"))
	logger := j.logger().With(slog.String("dir", dir))
	logger.Info("starting database backup")

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}
	for _, table := range backupTables {
		if err := j.exportTable(ctx, dir, table); err != nil {
			logger.Error("export table", slog.String("table", table), slog.Any("error", err))
			return err
		}
	}
	pruned, err := j.prune()
	if err != nil {
		logger.Warn("prune old backups", slog.Any("error", err))
	}

	logger.Info("completed database backup",
		slog.Int("tables", len(backupTables)),
		slog.Int("pruned", pruned),
		slog.Duration("duration", time.Since(now)))
	return nil
}

func (j *DatabaseBackupJob) exportTable(ctx context.Context, dir, table string) error {
	conn, err := j.Pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	f, err := os.Create(filepath.Join(dir, table+".csv"))
	if err != nil {
		return err
	}
	defer f.Close()

	copySQL := fmt.Sprintf("COPY %s TO STDOUT WITH (FORMAT csv, HEADER true)", table)
	if _, err := conn.Conn().PgConn().CopyTo(ctx, f, copySQL); err != nil {
		return fmt.Errorf("copy %s: %w", table, err)
	}
	return f.Close()
}

// prune removes the oldest export directories beyond the retention count.
func (j *DatabaseBackupJob) prune() (int, error) {
	if j.Retention <= 0 {
		return 0, nil
	}
	entries, err := os.ReadDir(j.Dir)
	if err != nil {
		return 0, err
	}
	dirs := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			dirs = append(dirs, entry.Name())
		}
	}
	if len(dirs) <= j.Retention {
		return 0, nil
	}
	// Directory names are timestamps, so lexical order is chronological.
	sort.Strings(dirs)
	pruned := 0
	for _, name := range dirs[:len(dirs)-j.Retention] {
		if err := os.RemoveAll(filepath.Join(j.Dir, name)); err != nil {
			return pruned, err
		}
		pruned++
	}
	return pruned, nil
}

func (j *DatabaseBackupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskDatabaseBackup))
	}
	return slog.Default().With(slog.String("job", TaskDatabaseBackup))
}

func (j *DatabaseBackupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
