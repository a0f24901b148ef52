package romaneio

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

const sampleManifest = "600 PEDRO LEOPOLDO\n" +
	"Emissão: 01/01/2024\n" +
	"Previsão: 02/01/2024\n" +
	"Motorista: João\n" +
	"Veículo: ABC-1234\n" +
	"1552-24995\n" +
	"Nome: 10 - Cliente X\n" +
	"Pedido: 99\n" +
	"Cidade: BH\n" +
	"Peso Pedido: 10,5\n" +
	"Endereço: Rua A\n" +
	"Total da Nota: R$ 100,00\n" +
	"Duplicata a Receber Boleto Valor: R$ 100,00"

func TestParseText_EndToEnd(t *testing.T) {
	records := ParseText(sampleManifest)
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}
	r := records[0]

	strs := map[string][2]string{
		"rota":              {r.Rota, "600 PEDRO LEOPOLDO"},
		"data_emissao":      {r.DataEmissao, "01/01/2024"},
		"data_previsao":     {r.DataPrevisao, "02/01/2024"},
		"motorista":         {r.Motorista, "João"},
		"veiculo":           {r.Veiculo, "ABC-1234"},
		"carga":             {r.Carga, ""},
		"numero_nota":       {r.NumeroNota, "1552-24995"},
		"codigo_cliente":    {r.CodigoCliente, "10"},
		"nome_cliente":      {r.NomeCliente, "Cliente X"},
		"pedido":            {r.Pedido, "99"},
		"cidade":            {r.Cidade, "BH"},
		"endereco":          {r.Endereco, "Rua A"},
		"forma_recebimento": {r.FormaRecebimento, "Boleto"},
	}
	for name, pair := range strs {
		if pair[0] != pair[1] {
			t.Errorf("%s: expected %q, got %q", name, pair[1], pair[0])
		}
	}

	nums := map[string]struct {
		got  *float64
		want float64
	}{
		"peso_pedido":       {r.PesoPedido, 10.5},
		"total_nota":        {r.TotalNota, 100.0},
		"valor_recebimento": {r.ValorRecebimento, 100.0},
	}
	for name, n := range nums {
		if n.got == nil || *n.got != n.want {
			t.Errorf("%s: expected %v, got %v", name, n.want, n.got)
		}
	}
}

func TestParseText_NormalizesDates(t *testing.T) {
	text := "Emissão: 01/02/24\nPrevisão: 3/02/2024\n1552-24995\nPedido: 1"
	records := ParseText(text)
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}
	if records[0].DataEmissao != "01/02/2024" {
		t.Errorf("Expected normalized emissao, got %q", records[0].DataEmissao)
	}
	if records[0].DataPrevisao != "03/02/2024" {
		t.Errorf("Expected normalized previsao, got %q", records[0].DataPrevisao)
	}
}

func TestParseText_SharedHeaderAndOrder(t *testing.T) {
	text := "700 BETIM\nMotorista: Ana\n" +
		"100-200\nPedido: 1\nTotal da Nota: 1,00\n" +
		"100-201\nPedido: 2\n" +
		"100-202\nPedido: 3\nTotal da Nota: 3,00\n"

	records := ParseText(text)
	if len(records) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(records))
	}
	for i, r := range records {
		if r.Rota != "700 BETIM" || r.Motorista != "Ana" {
			t.Errorf("record %d: header not shared: %+v", i, r)
		}
		if want := []string{"1", "2", "3"}[i]; r.Pedido != want {
			t.Errorf("record %d: expected pedido %q, got %q", i, want, r.Pedido)
		}
	}
	if records[1].TotalNota != nil {
		t.Errorf("Expected nil total for second note, got %v", *records[1].TotalNota)
	}
}

func TestParseText_NoNotes(t *testing.T) {
	records := ParseText("600 PEDRO LEOPOLDO\nMotorista: João\n")
	if records == nil || len(records) != 0 {
		t.Errorf("Expected empty non-nil result, got %#v", records)
	}
}

func TestParseText_Idempotent(t *testing.T) {
	a := ParseText(sampleManifest)
	b := ParseText(sampleManifest)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("Expected identical results, got %+v and %+v", a, b)
	}
}

func TestParseDocuments_ConcatenatesInOrder(t *testing.T) {
	docA := "111 ROTA A\n100-001\nPedido: a1\n100-002\nPedido: a2\n"
	docB := "sem notas"
	docC := "222 ROTA C\nPedido: 5\nNome: C\n"

	records := ParseDocuments([]string{docA, docB, docC})
	if len(records) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(records))
	}
	wantRota := []string{"111 ROTA A", "111 ROTA A", "222 ROTA C"}
	wantPedido := []string{"a1", "a2", "5"}
	for i := range records {
		if records[i].Rota != wantRota[i] || records[i].Pedido != wantPedido[i] {
			t.Errorf("record %d: expected %s/%s, got %s/%s", i, wantRota[i], wantPedido[i], records[i].Rota, records[i].Pedido)
		}
	}

	if empty := ParseDocuments(nil); empty == nil || len(empty) != 0 {
		t.Errorf("Expected empty non-nil result, got %#v", empty)
	}
}

func TestNoteRecord_AlwaysHasAllKeys(t *testing.T) {
	inputs := []string{
		sampleManifest,
		"Pedido: 1\nPedido: 2",
		"999-999\n",
		"100-100\nDuplicata a Receber Valor: abc",
	}
	for _, in := range inputs {
		for _, r := range ParseText(in) {
			b, err := json.Marshal(r)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			var m map[string]any
			if err := json.Unmarshal(b, &m); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if len(m) != len(Columns()) {
				t.Errorf("Expected %d keys, got %d: %s", len(Columns()), len(m), b)
			}
			for _, c := range Columns() {
				if _, ok := m[c]; !ok {
					t.Errorf("missing key %q in %s", c, b)
				}
			}
		}
	}
}

func TestNoteRecord_JSONKeyOrder(t *testing.T) {
	b, err := json.Marshal(NoteRecord{})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(b)
	last := -1
	for _, c := range Columns() {
		idx := strings.Index(s, `"`+c+`"`)
		if idx <= last {
			t.Fatalf("key %q out of order in %s", c, s)
		}
		last = idx
	}
	if !strings.Contains(s, `"peso_pedido":null`) {
		t.Errorf("Expected null numeric fields, got %s", s)
	}
}

func TestNoteRecord_ValuesAndMap(t *testing.T) {
	r := ParseText(sampleManifest)[0]
	vals := r.Values()
	if len(vals) != 16 {
		t.Fatalf("Expected 16 values, got %d", len(vals))
	}
	if vals[6] != "1552-24995" {
		t.Errorf("Expected numero_nota at index 6, got %v", vals[6])
	}
	if vals[11] != 10.5 {
		t.Errorf("Expected peso_pedido at index 11, got %v", vals[11])
	}
	m := NoteRecord{}.Map()
	if v, ok := m["total_nota"]; !ok || v != nil {
		t.Errorf("Expected total_nota key with nil value, got %v (present=%t)", v, ok)
	}
}

func TestColumns_ReturnsCopy(t *testing.T) {
	c := Columns()
	c[0] = "mutated"
	if Columns()[0] != "rota" {
		t.Error("Expected Columns() to be immune to caller mutation")
	}
}

func TestValidateRecords(t *testing.T) {
	records := ParseDocuments([]string{sampleManifest, "Pedido: 1\nPedido: 2"})
	if err := ValidateRecords(records); err != nil {
		t.Errorf("Expected records to satisfy schema, got %v", err)
	}
	if err := ValidateRecords(nil); err != nil {
		t.Errorf("Expected empty list to satisfy schema, got %v", err)
	}
}

func TestValidateJSON_RejectsBadShapes(t *testing.T) {
	bad := []string{
		`[{"rota":"x"}]`,
		`[{"rota":"x","data_emissao":"","data_previsao":"","motorista":"","veiculo":"","carga":"","numero_nota":"","codigo_cliente":"","nome_cliente":"","pedido":"","cidade":"","peso_pedido":"heavy","endereco":"","total_nota":null,"forma_recebimento":"","valor_recebimento":null}]`,
		`not json`,
	}
	for _, in := range bad {
		if err := ValidateJSON([]byte(in)); err == nil {
			t.Errorf("Expected schema error for %s", in)
		}
	}
}

func TestParser_Parse(t *testing.T) {
	p := NewParser(nil)
	if got := p.Parse("a.pdf", sampleManifest); len(got) != 1 {
		t.Errorf("Expected 1 record, got %d", len(got))
	}
	if got := p.Parse("b.pdf", ""); len(got) != 0 {
		t.Errorf("Expected 0 records, got %d", len(got))
	}
}
