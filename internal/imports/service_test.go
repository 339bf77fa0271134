package imports

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"leadcrm_backend/internal/events"
	"leadcrm_backend/internal/leads/domain"
	leadsvc "leadcrm_backend/internal/leads/service"
	"leadcrm_backend/platform/apperr"
	"leadcrm_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeCreator struct {
	mu      sync.Mutex
	nextID  int
	created []leadsvc.CreateParams
}

func (f *fakeCreator) Create(ctx context.Context, actor leadsvc.Actor, params leadsvc.CreateParams) (leadsvc.CreateResult, error) {
	if ctx.Err() != nil {
		return leadsvc.CreateResult{}, ctx.Err()
	}
	if !strings.HasPrefix(params.ContactNumber, "9") || len(params.ContactNumber) < 10 {
		return leadsvc.CreateResult{}, apperr.Validation("lead rejected",
			apperr.FieldError{Field: "contactNumber", Reason: "must be 10-15 digits"})
	}
	if strings.EqualFold(params.Source, "carrier pigeon") {
		return leadsvc.CreateResult{}, apperr.Validation("lead rejected",
			apperr.FieldError{Field: "source", Reason: "unknown lead source"})
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.created = append(f.created, params)
	return leadsvc.CreateResult{Snapshot: domain.Snapshot{LeadID: fmt.Sprintf("LD-%06d", f.nextID)}}, nil
}

type memReports struct {
	mu      sync.Mutex
	reports map[uuid.UUID]Report
}

func newMemReports() *memReports {
	return &memReports{reports: make(map[uuid.UUID]Report)}
}

func (m *memReports) SaveReport(ctx context.Context, report Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports[report.ID] = report
	return nil
}

func (m *memReports) GetReport(ctx context.Context, id uuid.UUID) (Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	report, ok := m.reports[id]
	if !ok {
		return Report{}, apperr.NotFound("import not found")
	}
	return report, nil
}

type testCfg struct {
	maxRows  int
	maxBytes int64
	workers  int
}

func (c testCfg) GetImportMaxRows() int    { return c.maxRows }
func (c testCfg) GetImportMaxBytes() int64 { return c.maxBytes }
func (c testCfg) GetImportWorkers() int    { return c.workers }

func newTestImport(creator *fakeCreator, store Store) *Service {
	log := logger.New("development")
	return New(creator, store, events.NewInMemoryBus(log), log, testCfg{maxRows: 1000, maxBytes: 1 << 20, workers: 4})
}

func testActor() leadsvc.Actor {
	return leadsvc.Actor{ID: uuid.New(), Role: "admin", Name: "Importer"}
}

const tenRowCSV = `name,email,contact_number,source
Row One,one@example.com,9876500001,Website
Row Two,two@example.com,9876500002,Website
Row Three,three@example.com,12,Website
Row Four,four@example.com,9876500004,Website
Row Five,five@example.com,9876500005,Website
Row Six,six@example.com,9876500006,Website
Row Seven,seven@example.com,9876500007,carrier pigeon
Row Eight,eight@example.com,9876500008,Website
Row Nine,nine@example.com,9876500009,Website
Row Ten,ten@example.com,9876500010,Website
`

func TestRunPartialSuccessInInputOrder(t *testing.T) {
	creator := &fakeCreator{}
	store := newMemReports()
	svc := newTestImport(creator, store)

	report, err := svc.Run(context.Background(), testActor(), []byte(tenRowCSV), "text/csv", "leads.csv")
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if report.TotalRows != 10 {
		t.Fatalf("total rows = %d, want 10", report.TotalRows)
	}
	if len(report.Successes) != 8 || len(report.Failures) != 2 {
		t.Fatalf("got %d successes / %d failures, want 8/2", len(report.Successes), len(report.Failures))
	}

	wantSuccess := []int{1, 2, 4, 5, 6, 8, 9, 10}
	for i, s := range report.Successes {
		if s.Row != wantSuccess[i] {
			t.Fatalf("success order mismatch at %d: got row %d, want %d", i, s.Row, wantSuccess[i])
		}
		if s.LeadID == "" {
			t.Fatalf("success row %d has no lead id", s.Row)
		}
	}
	if report.Failures[0].Row != 3 || report.Failures[1].Row != 7 {
		t.Fatalf("failure rows = %d, %d; want 3, 7", report.Failures[0].Row, report.Failures[1].Row)
	}
	if !strings.Contains(report.Failures[0].Reason, "contactNumber") {
		t.Fatalf("row 3 reason should flag the contact number, got %q", report.Failures[0].Reason)
	}
	if !strings.Contains(report.Failures[1].Reason, "source") {
		t.Fatalf("row 7 reason should flag the source, got %q", report.Failures[1].Reason)
	}
}

func TestFailureCSVHasOriginalColumnsPlusError(t *testing.T) {
	creator := &fakeCreator{}
	store := newMemReports()
	svc := newTestImport(creator, store)

	report, err := svc.Run(context.Background(), testActor(), []byte(tenRowCSV), "text/csv", "leads.csv")
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	data, err := svc.FailureCSV(context.Background(), report.ID)
	if err != nil {
		t.Fatalf("failure csv: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 failure rows, got %d lines", len(lines))
	}
	if lines[0] != "name,email,contact_number,source,error" {
		t.Fatalf("unexpected header: %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "Row Three,three@example.com,12,Website,") {
		t.Fatalf("row 3 cells not preserved: %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "Row Seven,seven@example.com,9876500007,carrier pigeon,") {
		t.Fatalf("row 7 cells not preserved: %q", lines[2])
	}
}

func TestRunWholeFileGuards(t *testing.T) {
	creator := &fakeCreator{}
	svc := newTestImport(creator, newMemReports())
	actor := testActor()

	cases := []struct {
		name        string
		data        string
		contentType string
		fileName    string
	}{
		{"wrong type", tenRowCSV, "application/pdf", "leads.pdf"},
		{"no data rows", "name,email,contact_number,source\n", "text/csv", "leads.csv"},
		{"missing headers", "name,email\nRow,r@example.com\n", "text/csv", "leads.csv"},
	}
	for _, tc := range cases {
		_, err := svc.Run(context.Background(), actor, []byte(tc.data), tc.contentType, tc.fileName)
		if apperr.GetKind(err) != apperr.KindImportFile {
			t.Errorf("%s: expected whole-file rejection, got %v", tc.name, err)
		}
	}
	if len(creator.created) != 0 {
		t.Fatalf("whole-file rejections must not create leads, created %d", len(creator.created))
	}
}

func TestRunRowLimit(t *testing.T) {
	creator := &fakeCreator{}
	log := logger.New("development")
	svc := New(creator, newMemReports(), events.NewInMemoryBus(log), log, testCfg{maxRows: 3, maxBytes: 1 << 20, workers: 2})

	_, err := svc.Run(context.Background(), testActor(), []byte(tenRowCSV), "text/csv", "leads.csv")
	if apperr.GetKind(err) != apperr.KindImportFile {
		t.Fatalf("expected row-limit rejection, got %v", err)
	}
}

func TestRunCancellationKeepsProcessedRows(t *testing.T) {
	creator := &fakeCreator{}
	store := newMemReports()
	log := logger.New("development")
	// A single worker keeps dispatch order deterministic.
	svc := New(creator, store, events.NewInMemoryBus(log), log, testCfg{maxRows: 1000, maxBytes: 1 << 20, workers: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancelled before any row is dispatched

	report, err := svc.Run(ctx, testActor(), []byte(tenRowCSV), "text/csv", "leads.csv")
	if err != nil {
		t.Fatalf("cancelled run still returns its report: %v", err)
	}
	if got := len(report.Successes) + len(report.Failures) + len(report.NotProcessed); got != report.TotalRows {
		t.Fatalf("rows unaccounted for: %d of %d", got, report.TotalRows)
	}
	if len(report.NotProcessed) == 0 {
		t.Fatalf("expected undispatched rows to be reported as not processed")
	}
	// Created leads stay created regardless of cancellation.
	if len(creator.created) != len(report.Successes) {
		t.Fatalf("created leads (%d) must match reported successes (%d)", len(creator.created), len(report.Successes))
	}
}
