//go:build integration || !unit

package integration

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	server "github.com/Meliodas1827/Pagsanjan-sub000/internal/adapters/http_server"
	redisad "github.com/Meliodas1827/Pagsanjan-sub000/internal/adapters/redis"
	"github.com/Meliodas1827/Pagsanjan-sub000/internal/app"
	"github.com/Meliodas1827/Pagsanjan-sub000/internal/domain"
	mysqlrepo "github.com/Meliodas1827/Pagsanjan-sub000/internal/storage/mysql"
)

// ---------- helpers ----------

func mustEnv(t *testing.T, k string) string {
	t.Helper()
	v := os.Getenv(k)
	if v == "" {
		t.Fatalf("%s not set; export it (e.g. MIGRATIONS_DIR=/path/to/sql)", k)
	}
	return v
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := mustEnv(t, "MIGRATIONS_DIR")

	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		t.Fatalf("MIGRATIONS_DIR=%s is not a directory or missing", dir)
	}
	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)
	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

func startMySQL(t *testing.T) *sql.DB {
	t.Helper()
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}
	runOpts := &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=pagsanjan",
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	hostPort := resource.GetPort("3306/tcp")
	dsn := fmt.Sprintf("root:%s@tcp(127.0.0.1:%s)/%s?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
		"root", hostPort, "pagsanjan")

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	applyMigrations(t, db)
	return db
}

// startStack wires the real router on top of MySQL and a miniredis cache.
func startStack(t *testing.T) (*httptest.Server, *mysqlrepo.Repo) {
	t.Helper()
	db := startMySQL(t)
	repo := mysqlrepo.New(db)

	mr := miniredis.RunT(t)
	cache := redisad.New(mr.Addr(), "", 0)

	locks := app.NewResourceLocks(time.Second)
	policy := app.Policy{DepositPct: 0.5}
	booking := app.NewBookingService(repo, cache, nil, locks, policy)
	availability := app.NewAvailabilityService(repo, repo, cache, 5*time.Minute, domain.DefaultLimitedPct)
	catalog := app.NewCatalogService(repo, cache, 5*time.Minute)

	srv := server.New()
	srv.MountHandlers(&server.Handlers{
		Catalog:      catalog,
		Booking:      booking,
		Availability: availability,
	})
	ts := httptest.NewServer(srv.Mux())
	t.Cleanup(ts.Close)
	return ts, repo
}

func postJSON(t *testing.T, url string, body any) (*http.Response, []byte) {
	t.Helper()
	b, _ := json.Marshal(body)
	res, err := http.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer res.Body.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(res.Body)
	return res, buf.Bytes()
}

// ---------- the test ----------

// Walks a full booking day on a four-slot landing area: partial fill,
// oversubscription rejection, exact fill, calendar state, payment proof,
// staff acceptance and a late cancellation.
func TestHTTP_EndToEnd_BookingFlow(t *testing.T) {
	ts, repo := startStack(t)

	// Seed one landing area with capacity 4.
	if err := repo.UpsertResource(context.Background(), domain.Resource{
		ID:       301,
		Category: domain.CategoryLandingArea,
		Name:     "Talon Falls Landing",
		Capacity: 4,
		DayPrice: 100,
	}); err != nil {
		t.Fatalf("seed resource: %v", err)
	}

	date := time.Now().UTC().AddDate(0, 1, 0).Format("2006-01-02")
	next := time.Now().UTC().AddDate(0, 1, 1).Format("2006-01-02")
	month := time.Now().UTC().AddDate(0, 1, 0).Format("2006-01")

	submit := func(name string, adults int) (*http.Response, []byte) {
		return postJSON(t, ts.URL+"/v1/reservations", map[string]any{
			"resource_id": 301,
			"guest_name":  name,
			"start_date":  date,
			"end_date":    next,
			"guests":      map[string]int{"adult": adults},
		})
	}

	// 3 of 4 slots
	res, body := submit("Group A", 3)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("first submit: status %d body %s", res.StatusCode, body)
	}
	var first domain.Reservation
	if err := json.Unmarshal(body, &first); err != nil {
		t.Fatalf("decode: %v", err)
	}

	// 2 more would be 5 of 4
	res, body = submit("Group B", 2)
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("oversubscribe: status %d body %s", res.StatusCode, body)
	}
	var prob struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(body, &prob); err != nil || prob.Type != "capacity_exceeded" {
		t.Fatalf("expected capacity_exceeded problem, got %s", body)
	}

	// the last slot still fits
	res, body = submit("Group C", 1)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("exact fill: status %d body %s", res.StatusCode, body)
	}

	// unknown guest bucket is rejected at the boundary
	res, body = postJSON(t, ts.URL+"/v1/reservations", map[string]any{
		"resource_id": 301,
		"guest_name":  "Group D",
		"start_date":  date,
		"end_date":    next,
		"guests":      map[string]int{"infant": 1},
	})
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown bucket: status %d body %s", res.StatusCode, body)
	}

	// so is a negative count, as a body problem rather than a range one
	res, body = postJSON(t, ts.URL+"/v1/reservations", map[string]any{
		"resource_id": 301,
		"guest_name":  "Group D",
		"start_date":  date,
		"end_date":    next,
		"guests":      map[string]int{"adult": -1},
	})
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("negative count: status %d body %s", res.StatusCode, body)
	}
	var negProb struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(body, &negProb); err != nil || negProb.Type != "invalid_body" {
		t.Fatalf("expected invalid_body problem, got %s", body)
	}

	// calendar shows the day fully booked
	got, err := http.Get(fmt.Sprintf("%s/v1/resources/301/availability?month=%s", ts.URL, month))
	if err != nil {
		t.Fatalf("GET availability: %v", err)
	}
	var cal struct {
		Days []domain.Snapshot `json:"days"`
	}
	if err := json.NewDecoder(got.Body).Decode(&cal); err != nil {
		t.Fatalf("decode calendar: %v", err)
	}
	got.Body.Close()
	var found bool
	for _, d := range cal.Days {
		if d.Date.Format("2006-01-02") == date {
			found = true
			if d.Status != domain.DayFullyBooked || d.Reserved != 4 {
				t.Fatalf("unexpected day: %+v", d)
			}
		}
	}
	if !found {
		t.Fatalf("booked date missing from calendar")
	}

	base := fmt.Sprintf("%s/v1/reservations/%d", ts.URL, first.ID)

	// guests cannot accept their own request
	res, body = postJSON(t, base+"/transition", map[string]any{"target": "accepted", "actor": "guest"})
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("guest accept: status %d body %s", res.StatusCode, body)
	}

	// staff acceptance needs a payment proof first
	res, body = postJSON(t, base+"/transition", map[string]any{"target": "accepted", "actor": "staff"})
	if res.StatusCode != http.StatusPaymentRequired {
		t.Fatalf("accept without proof: status %d body %s", res.StatusCode, body)
	}
	res, body = postJSON(t, base+"/payment-proof", map[string]any{"ref": "GC-77di1"})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("attach proof: status %d body %s", res.StatusCode, body)
	}
	res, body = postJSON(t, base+"/transition", map[string]any{"target": "accepted", "actor": "staff"})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("accept: status %d body %s", res.StatusCode, body)
	}

	// the generic transition endpoint does not cancel; that path skips the
	// fee split and refund
	res, body = postJSON(t, base+"/transition", map[string]any{"target": "cancelled", "actor": "guest"})
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("transition cancel: status %d body %s", res.StatusCode, body)
	}

	// cancelling more than 48h out is free
	res, body = postJSON(t, base+"/cancel", map[string]any{"actor": "guest", "reason": "typhoon"})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("cancel: status %d body %s", res.StatusCode, body)
	}
	var cr app.CancelResult
	if err := json.Unmarshal(body, &cr); err != nil {
		t.Fatalf("decode cancel: %v", err)
	}
	if cr.FeeApplied != 0 {
		t.Fatalf("expected free cancellation, got fee %v", cr.FeeApplied)
	}
	if cr.Reservation.Status != domain.StatusCancelled {
		t.Fatalf("unexpected status: %s", cr.Reservation.Status)
	}

	// the freed slots are bookable again
	res, body = submit("Group E", 3)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("rebook: status %d body %s", res.StatusCode, body)
	}
}
