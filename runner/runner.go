package runner

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/schemaplex/schemaplex/database"
)

// RunRecord represents one applied generation unit
type RunRecord struct {
	ID            int
	Filename      string
	AppliedAt     time.Time
	ExecutionTime time.Duration
	AppliedBy     string
	Status        string
	ErrorMessage  string
	Checksum      string
}

func getConn(ctx context.Context) (*pgx.Conn, error) {
	conn, err := database.GetConnection(ctx)
	if err != nil {
		return nil, fmt.Errorf("get connection: %v", err)
	}
	return conn, nil
}

func ensureRunsTable(ctx context.Context, conn *pgx.Conn) error {
	_, err := conn.Exec(ctx, `
	CREATE TABLE IF NOT EXISTS schemaplex_runs (
		id SERIAL PRIMARY KEY,
		filename TEXT NOT NULL,
		applied_at TIMESTAMP DEFAULT now(),
		execution_time INTERVAL,
		applied_by TEXT,
		status TEXT DEFAULT 'success',
		error_message TEXT,
		checksum TEXT NOT NULL
	);
	`)
	if err != nil {
		return fmt.Errorf("failed to create schemaplex_runs table: %v", err)
	}
	return nil
}

func getCurrentUser() string {
	currentUser, err := user.Current()
	if err != nil {
		return "unknown"
	}
	return currentUser.Username
}

func calculateChecksum(content string) string {
	hash := sha256.Sum256([]byte(content))
	return fmt.Sprintf("%x", hash)
}

// getAppliedChecksums returns the checksums of every successfully applied
// file. A file is skipped only when its exact content was applied before,
// so regenerating with changes re-applies under the same filename.
func getAppliedChecksums(ctx context.Context, conn *pgx.Conn) (map[string]bool, error) {
	rows, err := conn.Query(ctx, `SELECT checksum FROM schemaplex_runs WHERE status = 'success';`)
	if err != nil {
		return nil, fmt.Errorf("query applied runs: %v", err)
	}
	defer rows.Close()

	applied := map[string]bool{}
	for rows.Next() {
		var sum string
		if err := rows.Scan(&sum); err != nil {
			return nil, fmt.Errorf("scan checksum: %v", err)
		}
		applied[sum] = true
	}
	return applied, rows.Err()
}

func getFailedRuns(ctx context.Context, conn *pgx.Conn) ([]RunRecord, error) {
	rows, err := conn.Query(ctx, `SELECT filename, error_message FROM schemaplex_runs WHERE status = 'failed';`)
	if err != nil {
		return nil, fmt.Errorf("query failed runs: %v", err)
	}
	defer rows.Close()

	var failed []RunRecord
	for rows.Next() {
		var record RunRecord
		if err := rows.Scan(&record.Filename, &record.ErrorMessage); err != nil {
			return nil, fmt.Errorf("scan failed run: %v", err)
		}
		failed = append(failed, record)
	}
	return failed, rows.Err()
}

func getSQLFiles(dir string) ([]string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read output dir: %v", err)
	}

	var filenames []string
	for _, f := range files {
		if !f.IsDir() && strings.HasSuffix(f.Name(), ".sql") {
			filenames = append(filenames, f.Name())
		}
	}
	sort.Strings(filenames)
	return filenames, nil
}

func applyFile(ctx context.Context, conn *pgx.Conn, dir, filename string) error {
	content, err := os.ReadFile(filepath.Join(dir, filename))
	if err != nil {
		return fmt.Errorf("read file %s: %v", filename, err)
	}
	sql := string(content)
	checksum := calculateChecksum(sql)
	userName := getCurrentUser()
	startTime := time.Now()

	_, err = conn.Exec(ctx, sql)
	executionTime := time.Since(startTime)

	if err != nil {
		_, insertErr := conn.Exec(ctx, `
			INSERT INTO schemaplex_runs (filename, execution_time, applied_by, status, error_message, checksum)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, filename, executionTime, userName, "failed", err.Error(), checksum)
		if insertErr != nil {
			return fmt.Errorf("recording failed run %s: %v", filename, insertErr)
		}
		return fmt.Errorf("executing %s: %v", filename, err)
	}

	_, err = conn.Exec(ctx, `
		INSERT INTO schemaplex_runs (filename, execution_time, applied_by, status, checksum)
		VALUES ($1, $2, $3, $4, $5)
	`, filename, executionTime, userName, "success", checksum)
	if err != nil {
		return fmt.Errorf("recording run %s: %v", filename, err)
	}

	return nil
}

// Apply executes every pending .sql file under dir against the database,
// recording each run in schemaplex_runs. Files whose content was already
// applied are skipped by checksum.
func Apply(ctx context.Context, dir string) error {
	conn, err := getConn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close(ctx)

	if err := ensureRunsTable(ctx, conn); err != nil {
		return err
	}

	failed, err := getFailedRuns(ctx, conn)
	if err != nil {
		return fmt.Errorf("check failed runs: %v", err)
	}
	if len(failed) > 0 {
		fmt.Println("❌ Found failed runs that need to be resolved:")
		for _, record := range failed {
			fmt.Printf("   - %s: %s\n", record.Filename, record.ErrorMessage)
		}
		return fmt.Errorf("failed runs detected")
	}

	applied, err := getAppliedChecksums(ctx, conn)
	if err != nil {
		return err
	}

	files, err := getSQLFiles(dir)
	if err != nil {
		return err
	}

	var pending []string
	for _, f := range files {
		content, err := os.ReadFile(filepath.Join(dir, f))
		if err != nil {
			return fmt.Errorf("read file %s: %v", f, err)
		}
		if !applied[calculateChecksum(string(content))] {
			pending = append(pending, f)
		}
	}

	if len(pending) == 0 {
		fmt.Println("✅ Nothing to apply.")
		return nil
	}

	fmt.Printf("Applying %d file(s)...\n", len(pending))
	for _, f := range pending {
		fmt.Printf("Applying: %s\n", f)
		if err := applyFile(ctx, conn, dir, f); err != nil {
			return err
		}
	}

	fmt.Println("✅ All files applied.")
	return nil
}

// Status reports which .sql files under dir are applied, pending, or
// previously failed.
func Status(ctx context.Context, dir string) (applied []string, pending []string, failed []RunRecord, err error) {
	conn, err := getConn(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	defer conn.Close(ctx)

	if err := ensureRunsTable(ctx, conn); err != nil {
		return nil, nil, nil, err
	}

	appliedSums, err := getAppliedChecksums(ctx, conn)
	if err != nil {
		return nil, nil, nil, err
	}

	files, err := getSQLFiles(dir)
	if err != nil {
		return nil, nil, nil, err
	}

	for _, f := range files {
		content, readErr := os.ReadFile(filepath.Join(dir, f))
		if readErr != nil {
			return nil, nil, nil, fmt.Errorf("read file %s: %v", f, readErr)
		}
		if appliedSums[calculateChecksum(string(content))] {
			applied = append(applied, f)
		} else {
			pending = append(pending, f)
		}
	}

	failed, err = getFailedRuns(ctx, conn)
	if err != nil {
		return nil, nil, nil, err
	}

	return applied, pending, failed, nil
}

// Preview prints the SQL of every pending file without applying it.
func Preview(ctx context.Context, dir string) error {
	_, pending, _, err := Status(ctx, dir)
	if err != nil {
		return err
	}

	if len(pending) == 0 {
		fmt.Println("✅ Nothing to apply.")
		return nil
	}

	fmt.Println("\n================ DRY RUN: Apply Preview ================")
	for _, f := range pending {
		content, err := os.ReadFile(filepath.Join(dir, f))
		if err != nil {
			return fmt.Errorf("read file %s: %v", f, err)
		}
		fmt.Printf("\n-- File: %s --\n", f)
		fmt.Println(string(content))
	}
	fmt.Println("========================================================")
	fmt.Println("(Dry run only. Nothing was applied.)")
	return nil
}
