//go:build smoke

package smoke

import (
	"bytes"
	"database/sql"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/codr1/Lodgeicious/internal/testutil"
)

// smokeServer is a built server binary running against a temporary config.
type smokeServer struct {
	port     int
	stdout   bytes.Buffer
	stderr   bytes.Buffer
	waitDone chan struct{}
	waitErr  error
}

func (s *smokeServer) url(path string) string {
	return fmt.Sprintf("http://localhost:%d%s", s.port, path)
}

func (s *smokeServer) logs() string {
	return fmt.Sprintf("stdout:\n%s\nstderr:\n%s", s.stdout.String(), s.stderr.String())
}

func (s *smokeServer) assertRunning(t *testing.T) {
	t.Helper()
	select {
	case <-s.waitDone:
		t.Fatalf("server exited unexpectedly: %v\n%s", s.waitErr, s.logs())
	default:
	}
}

func startServer(t *testing.T, dbPath string) *smokeServer {
	t.Helper()

	repoRoot := findRepoRoot(t)
	tempDir := t.TempDir()

	binPath := filepath.Join(tempDir, "lodgeicious-server")
	buildCmd := exec.Command("go", "build", "-o", binPath, "./cmd/server")
	buildCmd.Dir = repoRoot
	buildOutput, err := buildCmd.CombinedOutput()
	if err != nil {
		t.Fatalf("failed to build server: %v\n%s", err, buildOutput)
	}

	srv := &smokeServer{port: reservePort(t), waitDone: make(chan struct{})}
	configPath := filepath.Join(tempDir, "config.yaml")
	configBody := fmt.Sprintf(`app:
  name: "Smoke Lodge"
  environment: "development"
  port: %d
  base_url: "http://localhost:%d"

database:
  driver: "sqlite"
  filename: "%s"

pricing:
  currency: "USD"
  tax_rate: "0.1"

payments:
  enabled: ["simulated"]

features:
  enable_metrics: true
  enable_debug: true
`, srv.port, srv.port, filepath.ToSlash(dbPath))

	if err := os.WriteFile(configPath, []byte(configBody), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cmd := exec.Command(binPath)
	cmd.Dir = tempDir
	cmd.Stdout = &srv.stdout
	cmd.Stderr = &srv.stderr
	cmd.Env = append(os.Environ(), "APP_SECRET_KEY=smoke-test-secret", "CONFIG_PATH="+configPath)

	if err := cmd.Start(); err != nil {
		t.Fatalf("failed to start server: %v", err)
	}
	go func() {
		srv.waitErr = cmd.Wait()
		close(srv.waitDone)
	}()

	t.Cleanup(func() {
		if cmd.Process == nil {
			return
		}
		_ = cmd.Process.Signal(os.Interrupt)
		select {
		case <-srv.waitDone:
			return
		case <-time.After(5 * time.Second):
		}
		_ = cmd.Process.Kill()
		select {
		case <-srv.waitDone:
		case <-time.After(5 * time.Second):
			t.Logf("server process did not exit after kill")
		}
	})

	waitForHealth(t, srv)
	return srv
}

func waitForHealth(t *testing.T, srv *smokeServer) {
	t.Helper()

	client := &http.Client{Timeout: 500 * time.Millisecond}
	deadline := time.Now().Add(10 * time.Second)

	for {
		select {
		case <-srv.waitDone:
			t.Fatalf("server exited before health check: %v\n%s", srv.waitErr, srv.logs())
		default:
		}

		resp, err := client.Get(srv.url("/health"))
		if err == nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}

		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for health check\n%s", srv.logs())
		}

		time.Sleep(100 * time.Millisecond)
	}
}

func TestServerStartup(t *testing.T) {
	srv := startServer(t, filepath.Join(t.TempDir(), "db", "smoke.db"))
	srv.assertRunning(t)
}

func reservePort(t *testing.T) int {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to reserve port: %v", err)
	}
	defer listener.Close()

	return listener.Addr().(*net.TCPAddr).Port
}

func findRepoRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}

	for i := 0; i < 6; i++ {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	t.Fatal("failed to locate repo root with go.mod")
	return ""
}

func TestMigrationsApplied(t *testing.T) {
	db := testutil.NewTestDB(t)

	expectedTables := []string{
		"users",
		"accommodations",
		"activities",
		"activity_slots",
		"carts",
		"cart_items",
		"bookings",
		"booking_items",
		"payments",
		"favorites",
	}

	for _, table := range expectedTables {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name = ?",
			table,
		).Scan(&name)
		if err == sql.ErrNoRows {
			t.Fatalf("missing expected table %q after migrations", table)
		}
		if err != nil {
			t.Fatalf("query table %q existence: %v", table, err)
		}
	}
}

func TestForeignKeyIntegrity(t *testing.T) {
	db := testutil.NewTestDB(t)

	var foreignKeysEnabled int
	if err := db.QueryRow("PRAGMA foreign_keys;").Scan(&foreignKeysEnabled); err != nil {
		t.Fatalf("query foreign_keys pragma: %v", err)
	}
	if foreignKeysEnabled != 1 {
		t.Fatalf("expected foreign_keys pragma enabled, got %d", foreignKeysEnabled)
	}

	_, err := db.Exec(
		`INSERT INTO activity_slots (activity_id, starts_at, capacity)
		 VALUES (9999, '2030-01-01 09:00:00', 4)`,
	)
	if err == nil {
		t.Fatal("expected foreign key constraint failure for invalid activity_id")
	}
}
