// Package imports provides the bulk CSV lead import pipeline: whole-file
// guards, per-row creation with partial success, a deterministic report in
// input order and a re-uploadable failure CSV.
package imports

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"leadcrm_backend/internal/events"
	leadsvc "leadcrm_backend/internal/leads/service"
	"leadcrm_backend/platform/apperr"
	"leadcrm_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// LeadCreator is the slice of the leads service the pipeline needs.
type LeadCreator interface {
	Create(ctx context.Context, actor leadsvc.Actor, params leadsvc.CreateParams) (leadsvc.CreateResult, error)
}

// Store persists import reports so failure files can be regenerated later.
type Store interface {
	SaveReport(ctx context.Context, report Report) error
	GetReport(ctx context.Context, id uuid.UUID) (Report, error)
}

// Config is the slice of application config the pipeline needs.
type Config interface {
	GetImportMaxRows() int
	GetImportMaxBytes() int64
	GetImportWorkers() int
}

// RowSuccess records one created lead.
type RowSuccess struct {
	Row    int    `json:"row"`
	LeadID string `json:"leadId"`
}

// RowFailure records one rejected row with its original cells.
type RowFailure struct {
	Row    int      `json:"row"`
	Values []string `json:"values"`
	Reason string   `json:"reason"`
}

// Report is the full outcome of one import run, ordered by input row.
type Report struct {
	ID           uuid.UUID    `json:"id"`
	ActorID      uuid.UUID    `json:"actorId"`
	FileName     string       `json:"fileName,omitempty"`
	TotalRows    int          `json:"totalRows"`
	Successes    []RowSuccess `json:"successes"`
	Failures     []RowFailure `json:"failures"`
	NotProcessed []int        `json:"notProcessed,omitempty"`
	Headers      []string     `json:"-"`
	CreatedAt    time.Time    `json:"createdAt"`
}

type Service struct {
	leads LeadCreator
	store Store
	bus   events.Bus
	log   *logger.Logger
	cfg   Config
}

func New(leads LeadCreator, store Store, bus events.Bus, log *logger.Logger, cfg Config) *Service {
	return &Service{leads: leads, store: store, bus: bus, log: log, cfg: cfg}
}

// acceptedContentType rejects obviously wrong uploads. Browsers send CSV
// files under several MIME types, so the check is permissive about those.
func acceptedContentType(contentType, fileName string) bool {
	ct := strings.ToLower(contentType)
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = ct[:i]
	}
	switch strings.TrimSpace(ct) {
	case "text/csv", "application/csv", "application/vnd.ms-excel", "text/plain", "application/octet-stream", "":
	default:
		return false
	}
	return fileName == "" || strings.HasSuffix(strings.ToLower(fileName), ".csv")
}

// Run executes one import. Whole-file guards reject the upload before any
// row runs; after that every row succeeds or fails on its own. Rows run on
// a bounded worker pool but the report always lists them in input order.
// Cancellation keeps already-created leads and reports undispatched rows as
// not processed.
func (s *Service) Run(ctx context.Context, actor leadsvc.Actor, data []byte, contentType, fileName string) (Report, error) {
	if int64(len(data)) > s.cfg.GetImportMaxBytes() {
		return Report{}, apperr.ImportFile("file exceeds the upload size limit")
	}
	if !acceptedContentType(contentType, fileName) {
		return Report{}, apperr.ImportFile("file must be a CSV upload")
	}

	file, err := parseFile(data, s.cfg.GetImportMaxRows())
	if err != nil {
		return Report{}, err
	}

	report := Report{
		ID:        uuid.New(),
		ActorID:   actor.ID,
		FileName:  fileName,
		TotalRows: len(file.Rows),
		Headers:   file.Headers,
		CreatedAt: time.Now().UTC(),
	}

	type rowResult struct {
		success *RowSuccess
		failure *RowFailure
		skipped bool
	}
	results := make([]rowResult, len(file.Rows))

	g, gctx := errgroup.WithContext(ctx)
	workers := s.cfg.GetImportWorkers()
	if workers < 1 {
		workers = 1
	}
	g.SetLimit(workers)

	for i, row := range file.Rows {
		if gctx.Err() != nil {
			results[i].skipped = true
			continue
		}
		i, row := i, row
		g.Go(func() error {
			leadID, err := s.processRow(gctx, actor, file, row, report.ID)
			switch {
			case err == nil:
				results[i].success = &RowSuccess{Row: row.Number, LeadID: leadID}
			case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
				results[i].skipped = true
			default:
				results[i].failure = &RowFailure{Row: row.Number, Values: row.Values, Reason: failureReason(err)}
			}
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; failures are per-row data

	for i, res := range results {
		switch {
		case res.success != nil:
			report.Successes = append(report.Successes, *res.success)
		case res.failure != nil:
			report.Failures = append(report.Failures, *res.failure)
		case res.skipped:
			report.NotProcessed = append(report.NotProcessed, file.Rows[i].Number)
		}
	}
	sort.Slice(report.Successes, func(a, b int) bool { return report.Successes[a].Row < report.Successes[b].Row })
	sort.Slice(report.Failures, func(a, b int) bool { return report.Failures[a].Row < report.Failures[b].Row })

	if err := s.store.SaveReport(ctx, report); err != nil {
		// The leads exist either way; losing the report only costs the
		// failure file download.
		s.log.DatabaseError("save import report", err)
	}

	s.bus.Publish(ctx, events.LeadImportCompleted{
		BaseEvent: events.NewBaseEvent(),
		ImportID:  report.ID,
		TotalRows: report.TotalRows,
		Succeeded: len(report.Successes),
		Failed:    len(report.Failures),
	})
	s.log.ImportReport(report.ID.String(), report.TotalRows, len(report.Successes), len(report.Failures), len(report.NotProcessed))

	return report, nil
}

// processRow runs the per-row pipeline: required cells, then lead creation,
// which normalizes the number, matches the source, classifies the presales
// pool and routes an owner under the first-available policy.
func (s *Service) processRow(ctx context.Context, actor leadsvc.Actor, file *File, row Row, importID uuid.UUID) (string, error) {
	contact := file.Field(row, colContact)
	source := file.Field(row, colSource)
	if contact == "" {
		return "", apperr.Validation("row rejected", apperr.FieldError{Field: "contactNumber", Reason: "contact number is required"})
	}
	if source == "" {
		return "", apperr.Validation("row rejected", apperr.FieldError{Field: "source", Reason: "lead source is required"})
	}

	res, err := s.leads.Create(ctx, actor, leadsvc.CreateParams{
		Name:          file.Field(row, colName),
		Email:         file.Field(row, colEmail),
		ContactNumber: contact,
		Source:        source,
		LanguageHint:  file.Field(row, colLanguage),
		ImportID:      &importID,
		AutoPick:      true,
	})
	if err != nil {
		return "", err
	}
	return res.Snapshot.LeadID, nil
}

// failureReason flattens a typed error into one failure-CSV cell.
func failureReason(err error) string {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		if len(appErr.Fields) > 0 {
			parts := make([]string, 0, len(appErr.Fields))
			for _, f := range appErr.Fields {
				parts = append(parts, f.Field+": "+f.Reason)
			}
			return strings.Join(parts, "; ")
		}
		return appErr.Message
	}
	return err.Error()
}

// FailureCSV regenerates the failure file for a finished import.
func (s *Service) FailureCSV(ctx context.Context, id uuid.UUID) ([]byte, error) {
	report, err := s.store.GetReport(ctx, id)
	if err != nil {
		return nil, err
	}
	return renderFailureCSV(report.Headers, report.Failures)
}
