package server

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/joseph-ayodele/romaneio-sheets/internal/export"
	"github.com/joseph-ayodele/romaneio-sheets/internal/ingest"
	"github.com/joseph-ayodele/romaneio-sheets/internal/pipeline"
	"github.com/joseph-ayodele/romaneio-sheets/internal/repository"
	"github.com/joseph-ayodele/romaneio-sheets/internal/services/documents"
	"github.com/joseph-ayodele/romaneio-sheets/internal/services/history"
	"github.com/joseph-ayodele/romaneio-sheets/internal/textextract"
)

const manifest = `600 PEDRO LEOPOLDO
Emissão: 01/02/2024 Previsão: 03/02/24
Motorista: JOAO DA SILVA
Veículo: ABC1D23
Carga: 4521
1552-24995 Nome: 123 - MERCADO CENTRAL LTDA
Pedido: 998877
Cidade: PEDRO LEOPOLDO
Peso Pedido: 1.250,50
Endereço: RUA DAS FLORES, 10
Total da Nota: R$ 5.458,96
Duplicata a Receber BOLETO 28 DIAS Valor: R$ 5.458,96
1552-24996 Nome: PADARIA BOM PAO
Total da Nota: R$ 100,00
`

type fixture struct {
	docs   *documents.Service
	export *export.Service
}

func newFixture(t *testing.T, withHistory bool) fixture {
	t.Helper()
	proc := pipeline.NewProcessor(textextract.NewExtractor(textextract.Config{}, nil), nil)
	var hist *history.Service
	if withHistory {
		ctx := context.Background()
		db, err := repository.Open(ctx, repository.Config{DSN: filepath.Join(t.TempDir(), "runs.db")}, nil)
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(db.Close)
		if err := db.Migrate(ctx); err != nil {
			t.Fatal(err)
		}
		hist = history.NewService(repository.NewRunRepository(db, nil), nil)
	}
	return fixture{
		docs:   documents.NewService(ingest.NewFSIngestor(nil), proc, hist, nil),
		export: export.NewService("", nil),
	}
}
