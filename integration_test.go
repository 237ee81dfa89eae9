//go:build integration

package vtable_test

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"testing"
	"time"

	"google.golang.org/grpc"

	vtable "github.com/hugr-lab/airport-vtable"
	"github.com/hugr-lab/airport-vtable/catalog"
	"github.com/hugr-lab/airport-vtable/registry"
	"github.com/hugr-lab/airport-vtable/table"

	_ "github.com/duckdb/duckdb-go/v2"
)

// startServer serves r over a loopback listener and returns its address.
func startServer(t *testing.T, r *registry.Registry, auth vtable.Authenticator) string {
	t.Helper()

	cat, err := vtable.NewCatalog(r, catalog.AttacherConfig{})
	if err != nil {
		t.Fatalf("NewCatalog failed: %v", err)
	}

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to create listener: %v", err)
	}

	debugLevel := slog.LevelDebug
	config := vtable.ServerConfig{
		Catalog:  cat,
		Auth:     auth,
		Address:  lis.Addr().String(),
		LogLevel: &debugLevel,
	}
	grpcServer := grpc.NewServer(vtable.ServerOptions(config)...)
	if err := vtable.NewServer(grpcServer, config); err != nil {
		t.Fatalf("Failed to register server: %v", err)
	}
	go func() { _ = grpcServer.Serve(lis) }()
	t.Cleanup(grpcServer.GracefulStop)

	time.Sleep(100 * time.Millisecond)
	return lis.Addr().String()
}

// openDuckDB opens an in-memory DuckDB with the Airport extension loaded.
func openDuckDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("duckdb", "")
	if err != nil {
		t.Fatalf("DuckDB not available: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec("INSTALL airport FROM community"); err != nil {
		t.Fatalf("Airport extension not available: %v", err)
	}
	if _, err := db.Exec("LOAD airport"); err != nil {
		t.Fatalf("Failed to load Airport extension: %v", err)
	}
	return db
}

func attach(t *testing.T, db *sql.DB, address, token string) {
	t.Helper()

	if token == "" {
		query := fmt.Sprintf("ATTACH '' AS host (TYPE airport, LOCATION 'grpc://%s')", address)
		if _, err := db.Exec(query); err != nil {
			t.Fatalf("Failed to attach Flight server: %v", err)
		}
		return
	}
	secret := fmt.Sprintf("CREATE OR REPLACE SECRET vtable_secret (TYPE AIRPORT, auth_token '%s', scope 'grpc://%s')", token, address)
	if _, err := db.Exec(secret); err != nil {
		t.Fatalf("Failed to create secret: %v", err)
	}
	query := fmt.Sprintf("ATTACH '' AS host (TYPE airport, SECRET vtable_secret, LOCATION 'grpc://%s')", address)
	if _, err := db.Exec(query); err != nil {
		t.Fatalf("Failed to attach Flight server: %v", err)
	}
}

func TestDuckDBQuery(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
	)
	users := table.NewPlugin("users", table.Schema{
		{Name: "uid", Type: table.BigInt},
		{Name: "username", Type: table.Text},
		{Name: "shell_len", Type: table.Integer},
	}, func(ctx context.Context, qc *table.QueryContext) ([]table.Row, error) {
		mu.Lock()
		seen = qc.GetAll("uid", table.OpEQ)
		mu.Unlock()
		return []table.Row{
			{"uid": "0", "username": "root", "shell_len": "9"},
			{"uid": "1000", "username": "alice", "shell_len": "8"},
			{"uid": "1001", "username": "bob", "shell_len": "not a number"},
		}, nil
	})

	r := registry.New()
	if err := r.Register(users); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	db := openDuckDB(t)
	attach(t, db, startServer(t, r, nil), "")

	t.Run("tables", func(t *testing.T) {
		var name string
		err := db.QueryRow("SELECT table_name FROM duckdb_tables() WHERE catalog_name = 'host' AND schema_name = 'main'").Scan(&name)
		if err != nil {
			t.Fatalf("Failed to query tables: %v", err)
		}
		if name != "users" {
			t.Errorf("table = %q, want users", name)
		}
	})

	t.Run("pushdown", func(t *testing.T) {
		var username string
		if err := db.QueryRow("SELECT username FROM host.main.users WHERE uid = 1000").Scan(&username); err != nil {
			t.Fatalf("Query failed: %v", err)
		}
		if username != "alice" {
			t.Errorf("username = %q, want alice", username)
		}
		mu.Lock()
		defer mu.Unlock()
		if len(seen) != 1 || seen[0] != "1000" {
			t.Errorf("pushed down uid constraints = %v, want [1000]", seen)
		}
	})

	t.Run("coercion sentinel", func(t *testing.T) {
		var n int32
		if err := db.QueryRow("SELECT shell_len FROM host.main.users WHERE username = 'bob'").Scan(&n); err != nil {
			t.Fatalf("Query failed: %v", err)
		}
		if n != -1 {
			t.Errorf("shell_len = %d, want -1", n)
		}
	})
}

func TestDuckDBAuth(t *testing.T) {
	r := registry.New()
	if err := r.Register(whoami()); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	address := startServer(t, r, vtable.StaticTokens(map[string]string{"secret": "alice"}))

	db := openDuckDB(t)
	attach(t, db, address, "secret")

	var identity string
	if err := db.QueryRow("SELECT identity FROM host.main.whoami").Scan(&identity); err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if identity != "alice" {
		t.Errorf("identity = %q, want alice", identity)
	}
}
