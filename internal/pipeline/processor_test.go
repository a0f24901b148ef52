package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/joseph-ayodele/romaneio-sheets/constants"
	"github.com/joseph-ayodele/romaneio-sheets/internal/ingest"
	"github.com/joseph-ayodele/romaneio-sheets/internal/textextract"
)

const manifestA = `123 ROTA CENTRO
Emissão: 01/02/2024
Previsão: 02/02/2024
Motorista: JOAO
Veículo: ABC1234
Carga: 10
12345-678 CLIENTE UM
Peso Pedido: 1.000,50
Total da Nota: R$ 2.000,00
12345-679 CLIENTE DOIS
Total da Nota: R$ 500,25
`

const manifestB = `456 ROTA NORTE
55555-001 CLIENTE TRES
Peso Pedido: 10,00
`

type stubExtractor struct {
	mu     sync.Mutex
	texts  map[string]string
	errs   map[string]error
	delay  time.Duration
	active int
	peak   int
	panics map[string]bool
}

func (s *stubExtractor) Extract(ctx context.Context, path string) (textextract.Result, error) {
	s.mu.Lock()
	s.active++
	if s.active > s.peak {
		s.peak = s.active
	}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.active--
		s.mu.Unlock()
	}()

	if s.panics[path] {
		panic("corrupt document")
	}
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return textextract.Result{}, ctx.Err()
		}
	}
	if err := s.errs[path]; err != nil {
		return textextract.Result{Method: constants.MethodPdftotext}, err
	}
	return textextract.Result{Text: s.texts[path], Pages: 1, Method: constants.MethodPdftotext}, nil
}

func sources(paths ...string) []ingest.Source {
	out := make([]ingest.Source, len(paths))
	for i, p := range paths {
		out[i] = ingest.Source{Name: p, Path: p}
	}
	return out
}

func TestProcessOrderAndStatuses(t *testing.T) {
	ex := &stubExtractor{
		texts: map[string]string{"a.pdf": manifestA, "b.pdf": manifestB, "empty.pdf": "nothing here"},
		errs:  map[string]error{"bad.pdf": errors.New("pdftotext: exit status 1")},
	}
	p := NewProcessor(ex, nil, WithWorkers(3))

	batch := p.Process(context.Background(), sources("a.pdf", "bad.pdf", "empty.pdf", "b.pdf"))
	if len(batch.Documents) != 4 {
		t.Fatalf("documents = %d", len(batch.Documents))
	}
	wantStatus := []constants.DocumentStatus{
		constants.DocumentStatusOK,
		constants.DocumentStatusFailed,
		constants.DocumentStatusNoNotes,
		constants.DocumentStatusOK,
	}
	for i, d := range batch.Documents {
		if d.Index != i {
			t.Errorf("doc %d index = %d", i, d.Index)
		}
		if d.Status != wantStatus[i] {
			t.Errorf("doc %d status = %s, want %s", i, d.Status, wantStatus[i])
		}
	}

	recs := batch.Records()
	if len(recs) != 3 {
		t.Fatalf("records = %d, want 3", len(recs))
	}
	gotNotes := []string{recs[0].NumeroNota, recs[1].NumeroNota, recs[2].NumeroNota}
	if strings.Join(gotNotes, ",") != "12345-678,12345-679,55555-001" {
		t.Errorf("record order = %v", gotNotes)
	}
	if recs[2].Rota != "456 ROTA NORTE" {
		t.Errorf("second document rota = %q", recs[2].Rota)
	}

	s := batch.Summary()
	if s.Documents != 4 || s.OK != 2 || s.Failed != 1 || s.Empty != 1 || s.Notes != 3 {
		t.Errorf("summary = %+v", s)
	}
	if s.TotalNota != 2500.25 {
		t.Errorf("total nota = %v, want 2500.25", s.TotalNota)
	}
	if s.PesoTotal != 1010.5 {
		t.Errorf("peso total = %v, want 1010.5", s.PesoTotal)
	}

	msgs := batch.Messages()
	if len(msgs) != 2 {
		t.Fatalf("messages = %+v", msgs)
	}
	if msgs[0].Level != LevelError || msgs[0].Text != "Erro ao processar bad.pdf: pdftotext: exit status 1" {
		t.Errorf("message[0] = %+v", msgs[0])
	}
	if msgs[1].Level != LevelWarning || msgs[1].Text != "Nenhuma nota encontrada em empty.pdf." {
		t.Errorf("message[1] = %+v", msgs[1])
	}
}

func TestProcessNoNotesAnywhere(t *testing.T) {
	ex := &stubExtractor{texts: map[string]string{"x.pdf": "sem notas"}}
	batch := NewProcessor(ex, nil).Process(context.Background(), sources("x.pdf"))

	if got := batch.Records(); got == nil || len(got) != 0 {
		t.Fatalf("Records() = %v, want empty non-nil", got)
	}
	msgs := batch.Messages()
	if len(msgs) != 2 || msgs[1].Text != "Nenhuma nota foi identificada nos PDFs enviados." {
		t.Fatalf("messages = %+v", msgs)
	}
}

func TestProcessSourceWithIngestError(t *testing.T) {
	ex := &stubExtractor{texts: map[string]string{"a.pdf": manifestA, "c.pdf": manifestB}}
	srcs := sources("a.pdf", "b.pdf", "c.pdf")
	srcs[1].Err = errors.New("open: permission denied")

	batch := NewProcessor(ex, nil).Process(context.Background(), srcs)
	if got := batch.Documents[1]; got.Status != constants.DocumentStatusFailed || got.Err != srcs[1].Err {
		t.Fatalf("b.pdf = %s %v, want FAILED with ingest error", got.Status, got.Err)
	}
	if got := len(batch.Records()); got != 3 {
		t.Errorf("records = %d, want 3", got)
	}
	msgs := batch.Messages()
	if len(msgs) != 1 || msgs[0].Text != "Erro ao processar b.pdf: open: permission denied" {
		t.Errorf("messages = %+v", msgs)
	}
}

func TestProcessEmptyBatch(t *testing.T) {
	batch := NewProcessor(&stubExtractor{}, nil).Process(context.Background(), nil)
	if len(batch.Documents) != 0 || len(batch.Records()) != 0 {
		t.Fatalf("batch = %+v", batch)
	}
}

func TestProcessBoundsWorkers(t *testing.T) {
	ex := &stubExtractor{texts: map[string]string{}, delay: 20 * time.Millisecond}
	p := NewProcessor(ex, nil, WithWorkers(2))
	p.Process(context.Background(), sources("1.pdf", "2.pdf", "3.pdf", "4.pdf", "5.pdf", "6.pdf"))
	if ex.peak > 2 {
		t.Fatalf("peak concurrency = %d, want <= 2", ex.peak)
	}
}

func TestProcessPanicIsolated(t *testing.T) {
	ex := &stubExtractor{
		texts:  map[string]string{"ok.pdf": manifestB},
		panics: map[string]bool{"boom.pdf": true},
	}
	batch := NewProcessor(ex, nil, WithWorkers(1)).Process(context.Background(), sources("boom.pdf", "ok.pdf"))
	if batch.Documents[0].Status != constants.DocumentStatusFailed || batch.Documents[0].Err == nil {
		t.Errorf("panicking doc = %+v", batch.Documents[0])
	}
	if batch.Documents[1].Status != constants.DocumentStatusOK {
		t.Errorf("following doc = %+v", batch.Documents[1])
	}
}

func TestProcessDocumentTimeout(t *testing.T) {
	ex := &stubExtractor{texts: map[string]string{}, delay: time.Second}
	p := NewProcessor(ex, nil, WithDocumentTimeout(10*time.Millisecond))
	batch := p.Process(context.Background(), sources("slow.pdf"))
	d := batch.Documents[0]
	if d.Status != constants.DocumentStatusFailed || !errors.Is(d.Err, context.DeadlineExceeded) {
		t.Fatalf("doc = %+v", d)
	}
}

func TestProcessCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ex := &stubExtractor{texts: map[string]string{"a.pdf": manifestA}}
	batch := NewProcessor(ex, nil).Process(ctx, sources("a.pdf", "b.pdf"))
	for _, d := range batch.Documents {
		if d.Status != constants.DocumentStatusFailed || !errors.Is(d.Err, context.Canceled) {
			t.Fatalf("doc = %+v, want FAILED with context.Canceled", d)
		}
	}
}

func TestProcessTexts(t *testing.T) {
	p := NewProcessor(&stubExtractor{}, nil)
	batch := p.ProcessTexts(context.Background(), []Text{
		{Name: "colado", Text: strings.ReplaceAll(manifestA, "\n", "\r\n")},
		{Text: "nada"},
	})
	if got := len(batch.Records()); got != 2 {
		t.Fatalf("records = %d, want 2", got)
	}
	if batch.Documents[0].Method != constants.MethodInline {
		t.Errorf("method = %q", batch.Documents[0].Method)
	}
	if batch.Documents[1].Name() != "documento 2" {
		t.Errorf("unnamed doc name = %q", batch.Documents[1].Name())
	}
	if batch.Records()[0].Motorista != "JOAO" {
		t.Errorf("motorista = %q", batch.Records()[0].Motorista)
	}
}
