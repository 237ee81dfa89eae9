package registry

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hugr-lab/airport-vtable/table"
	"github.com/hugr-lab/airport-vtable/vtab"
)

// memHost keeps one adapter per attached table.
type memHost struct {
	tables  map[string]*vtab.Table
	order   []string
	failFor map[string]error
}

func newMemHost() *memHost {
	return &memHost{tables: make(map[string]*vtab.Table), failFor: make(map[string]error)}
}

func (h *memHost) Attach(name string, m *vtab.Module) error {
	if err := h.failFor[name]; err != nil {
		return err
	}
	t, err := m.Create(nil)
	if err != nil {
		return err
	}
	h.tables[name] = t
	h.order = append(h.order, name)
	return nil
}

func (h *memHost) Detach(name string) error {
	t, ok := h.tables[name]
	if !ok {
		return errors.New("not attached")
	}
	delete(h.tables, name)
	return t.Destroy()
}

func plugin(name string, rows ...table.Row) table.Plugin {
	return table.NewPlugin(name, table.Schema{{Name: "v", Type: table.Text}},
		func(context.Context, *table.QueryContext) ([]table.Row, error) {
			return rows, nil
		})
}

func count(t *testing.T, tbl *vtab.Table) int {
	t.Helper()
	c, err := tbl.Open()
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer c.Close()
	if _, err := tbl.BestIndex(&vtab.IndexInfoInput{}); err != nil {
		t.Fatalf("BestIndex() error = %v", err)
	}
	if err := c.Filter(context.Background(), 0, ""); err != nil {
		t.Fatalf("Filter() error = %v", err)
	}
	n := 0
	for ; !c.Eof(); _ = c.Next() {
		n++
	}
	return n
}

func TestRegister(t *testing.T) {
	r := New()
	if err := r.Register(plugin("a")); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := r.Register(plugin("a")); !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate Register() error = %v, want ErrDuplicate", err)
	}
	if err := r.Register(nil); !errors.Is(err, ErrNilPlugin) {
		t.Errorf("Register(nil) error = %v, want ErrNilPlugin", err)
	}
	if err := r.Register(plugin("")); !errors.Is(err, table.ErrEmptyName) {
		t.Errorf("Register(\"\") error = %v, want ErrEmptyName", err)
	}
	if _, ok := r.Lookup("a"); !ok {
		t.Error("Lookup(a) not found")
	}
	if _, ok := r.Lookup("b"); ok {
		t.Error("Lookup(b) should not be found")
	}
}

func TestAttachAllSeals(t *testing.T) {
	r := New()
	_ = r.Register(plugin("a"))
	if r.Sealed() {
		t.Fatal("registry sealed before attach")
	}
	if err := r.AttachAll(newMemHost(), nil); err != nil {
		t.Fatalf("AttachAll() error = %v", err)
	}
	if !r.Sealed() {
		t.Error("registry not sealed after attach")
	}
	if err := r.Register(plugin("b")); !errors.Is(err, ErrSealed) {
		t.Errorf("Register() after attach error = %v, want ErrSealed", err)
	}
}

func TestAttachAllIndependentTables(t *testing.T) {
	r := New()
	_ = r.Register(plugin("zeta", table.Row{"v": "1"}))
	_ = r.Register(plugin("alpha", table.Row{"v": "1"}, table.Row{"v": "2"}))

	h := newMemHost()
	if err := r.AttachAll(h, nil); err != nil {
		t.Fatalf("AttachAll() error = %v", err)
	}
	if strings.Join(h.order, ",") != "alpha,zeta" {
		t.Errorf("attach order = %v, want [alpha zeta]", h.order)
	}
	if got := count(t, h.tables["alpha"]); got != 2 {
		t.Errorf("alpha rows = %d, want 2", got)
	}
	if got := count(t, h.tables["zeta"]); got != 1 {
		t.Errorf("zeta rows = %d, want 1", got)
	}

	zeta := h.tables["zeta"]
	if err := h.Detach("alpha"); err != nil {
		t.Fatalf("Detach() error = %v", err)
	}
	if got := count(t, zeta); got != 1 {
		t.Errorf("zeta rows after detaching alpha = %d, want 1", got)
	}
}

func TestAttachAllPartialFailure(t *testing.T) {
	r := New()
	_ = r.Register(plugin("good"))
	_ = r.Register(plugin("bad"))
	_ = r.Register(table.NewPlugin("broken", nil, nil))

	h := newMemHost()
	boom := errors.New("host refused")
	h.failFor["bad"] = boom

	err := r.AttachAll(h, nil)
	var ae *AttachError
	if !errors.As(err, &ae) {
		t.Fatalf("AttachAll() error = %v, want *AttachError", err)
	}
	if got := strings.Join(ae.Tables(), ","); got != "bad,broken" {
		t.Errorf("Tables() = %s, want bad,broken", got)
	}
	if !errors.Is(err, boom) {
		t.Error("AttachError should wrap the host error")
	}
	if !errors.Is(err, table.ErrEmptySchema) {
		t.Error("AttachError should wrap the schema error")
	}
	if !strings.Contains(err.Error(), "2 table(s) unavailable") {
		t.Errorf("Error() = %q", err.Error())
	}
	if _, ok := h.tables["good"]; !ok {
		t.Error("good table should stay attached")
	}
}
