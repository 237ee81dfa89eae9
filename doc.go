// Package vtable serves table plugins to DuckDB over Arrow Flight.
//
// A plugin declares a fixed set of TEXT, INTEGER and BIGINT columns and generates
// its rows on demand (package table). Plugins are registered in a registry and
// attached to a catalog schema; every query against an attached table runs the
// virtual table lifecycle (package vtab): constraint negotiation, argument binding,
// row generation into a column buffer, and cursor iteration with type coercion.
// The Flight layer implements the DuckDB Airport extension protocol on top of it, so
// the tables can be queried with
//
//	ATTACH '' AS host (TYPE airport, LOCATION 'grpc://localhost:50051');
//	SELECT name FROM host.main.processes WHERE pid = 1;
//
// # Quick Start
//
//	r := registry.New()
//	_ = r.Register(table.NewPlugin("numbers", table.Schema{
//	    {Name: "n", Type: table.Integer},
//	}, func(ctx context.Context, qc *table.QueryContext) ([]table.Row, error) {
//	    return []table.Row{{"n": "1"}, {"n": "2"}}, nil
//	}))
//
//	cat, err := vtable.NewCatalog(r, catalog.AttacherConfig{})
//	if err != nil {
//	    log.Printf("some tables are unavailable: %v", err)
//	}
//
//	config := vtable.ServerConfig{Catalog: cat}
//	grpcServer := grpc.NewServer(vtable.ServerOptions(config)...)
//	if err := vtable.NewServer(grpcServer, config); err != nil {
//	    log.Fatal(err)
//	}
//	lis, _ := net.Listen("tcp", ":50051")
//	grpcServer.Serve(lis)
//
// # Filter Pushdown
//
// DuckDB sends the WHERE clause of a scan as JSON. Comparisons of a column with a
// constant, BETWEEN, LIKE, GLOB and regexp_matches become index constraints that the
// plugin sees through its QueryContext. Terms under OR are offered but never bound.
// Pushdown is only a hint: DuckDB re-applies every predicate to the returned rows.
//
// # Server Lifecycle
//
// The package registers Flight service handlers on a caller-provided grpc.Server and
// does NOT manage listening or shutdown. TLS, extra interceptors and graceful stop
// stay under the caller's control.
//
// # Authentication
//
// Bearer tokens are checked by gRPC interceptors installed via ServerOptions when
// ServerConfig.Auth is set (see BearerAuth and StaticTokens). The authenticated
// identity is available to plugins through IdentityFromContext.
//
// # Memory Management
//
// Arrow uses manual reference counting. Record readers returned by table scans are
// released by the Flight layer once streamed.
package vtable
