package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vitrine-app/vitrine/internal/api"
	"github.com/vitrine-app/vitrine/internal/apitest"
	"github.com/vitrine-app/vitrine/internal/cart"
	"github.com/vitrine-app/vitrine/internal/catalog"
	"github.com/vitrine-app/vitrine/internal/db"
	"github.com/vitrine-app/vitrine/internal/model"
	"github.com/vitrine-app/vitrine/internal/session"
)

// runScript drives the shell with scripted input and returns its output.
func runScript(t *testing.T, fixture *apitest.Server, script string) string {
	t.Helper()

	server := httptest.NewServer(fixture.Handler())
	t.Cleanup(server.Close)

	ctx := context.Background()
	client := api.New(server.URL)

	sess := session.New(client, db.NewTestDB(t))
	sess.Restore(ctx)

	products := catalog.New(client)
	products.Refresh(ctx)

	var out bytes.Buffer
	sh := &shell{
		session: sess,
		catalog: products,
		cart:    cart.New(),
		in:      strings.NewReader(script),
		out:     &out,
	}
	sh.run(ctx)
	return out.String()
}

func TestShellCartFlow(t *testing.T) {
	fixture := apitest.NewServer()
	fixture.SeedProduct(model.ProductDraft{Name: "A", Price: 10.00, Stock: 5})
	fixture.SeedProduct(model.ProductDraft{Name: "B", Price: 5.00, Stock: 5})

	out := runScript(t, fixture, "add 1\nadd 1\nadd 2\ncart\ncheckout\ncart\nquit\n")

	if !strings.Contains(out, "total: 3 items, 25.00") {
		t.Errorf("expected cart totals in output:\n%s", out)
	}
	if !strings.Contains(out, "3 items, total 25.00") {
		t.Errorf("expected checkout receipt in output:\n%s", out)
	}
	if !strings.Contains(out, "cart is empty") {
		t.Errorf("expected empty cart after checkout:\n%s", out)
	}
}

func TestShellInvalidDraftNeverReachesNetwork(t *testing.T) {
	fixture := apitest.NewServer()
	fixture.SeedUser("Admin", "admin@example.com", "admin", model.RoleAdmin)

	// Log in, then submit an entirely empty product form.
	script := "login\nadmin@example.com\nadmin\n" +
		"product new\n\n\n\n\n\n\n" +
		"quit\n"
	out := runScript(t, fixture, script)

	if !strings.Contains(out, "please fix the following:") {
		t.Errorf("expected validation errors in output:\n%s", out)
	}
	if hits := fixture.Hits("POST", "/products"); hits != 0 {
		t.Errorf("invalid draft must be rejected before any network call, got %d creates", hits)
	}
}

func TestShellProductManagementRequiresAdmin(t *testing.T) {
	fixture := apitest.NewServer()

	out := runScript(t, fixture, "product new\nquit\n")

	if !strings.Contains(out, "requires an admin session") {
		t.Errorf("expected admin gate message:\n%s", out)
	}
}
