package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/joseph-ayodele/romaneio-sheets/internal/common"
	"github.com/joseph-ayodele/romaneio-sheets/internal/pipeline"
	"github.com/joseph-ayodele/romaneio-sheets/internal/services/history"
)

func TestNewWithoutHistory(t *testing.T) {
	a, err := New(context.Background(), common.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	defer a.Close()
	if a.DB != nil || a.History().Enabled() {
		t.Fatal("history should be disabled with an empty DSN")
	}
	if err := a.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck() = %v", err)
	}
}

func TestNewWithSQLiteHistory(t *testing.T) {
	cfg := common.DefaultConfig()
	cfg.Database.DSN = filepath.Join(t.TempDir(), "runs.db")
	a, err := New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	defer a.Close()

	out, err := a.Documents.ParseTexts(context.Background(), history.OriginCLI, []pipeline.Text{
		{Name: "inline", Text: "600 ROTA\n1552-24995 Nome: 1 - LOJA\nTotal da Nota: 10,00\n"},
	})
	if err != nil {
		t.Fatalf("ParseTexts() = %v", err)
	}
	runs, err := a.History().ListRuns(context.Background(), 0)
	if err != nil || len(runs) != 1 || runs[0].ID != out.RunID {
		t.Fatalf("ListRuns() = %+v, %v", runs, err)
	}

	rec := httptest.NewRecorder()
	a.HTTPHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz = %d", rec.Code)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := common.DefaultConfig()
	cfg.Extract.Backend = "tesseract"
	_, err := New(context.Background(), cfg, nil)
	var appErr *common.AppError
	if !errors.As(err, &appErr) || appErr.Code != "CONFIG_ERROR" {
		t.Fatalf("New() err = %v", err)
	}
}
