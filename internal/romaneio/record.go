package romaneio

// columns is the fixed output schema. Order matters: it is the XLSX column
// order and the JSON key order.
var columns = []string{
	"rota",
	"data_emissao",
	"data_previsao",
	"motorista",
	"veiculo",
	"carga",
	"numero_nota",
	"codigo_cliente",
	"nome_cliente",
	"pedido",
	"cidade",
	"peso_pedido",
	"endereco",
	"total_nota",
	"forma_recebimento",
	"valor_recebimento",
}

// Columns returns a copy of the record schema column names in output order.
func Columns() []string {
	out := make([]string, len(columns))
	copy(out, columns)
	return out
}

// ManifestHeader holds the shipment-level fields shared by every note of one document.
type ManifestHeader struct {
	Rota         string `json:"rota"`
	DataEmissao  string `json:"data_emissao"`
	DataPrevisao string `json:"data_previsao"`
	Motorista    string `json:"motorista"`
	Veiculo      string `json:"veiculo"`
	Carga        string `json:"carga"`
}

// BlockFields are the per-note fields parsed out of a single note block.
type BlockFields struct {
	NumeroNota       string
	CodigoCliente    string
	NomeCliente      string
	Pedido           string
	Cidade           string
	PesoPedido       *float64
	Endereco         string
	TotalNota        *float64
	FormaRecebimento string
	ValorRecebimento *float64
}

// NoteRecord is one output row. Field order mirrors Columns(); no key is ever
// omitted when serialized, absent numbers encode as null.
type NoteRecord struct {
	Rota             string   `json:"rota"`
	DataEmissao      string   `json:"data_emissao"`
	DataPrevisao     string   `json:"data_previsao"`
	Motorista        string   `json:"motorista"`
	Veiculo          string   `json:"veiculo"`
	Carga            string   `json:"carga"`
	NumeroNota       string   `json:"numero_nota"`
	CodigoCliente    string   `json:"codigo_cliente"`
	NomeCliente      string   `json:"nome_cliente"`
	Pedido           string   `json:"pedido"`
	Cidade           string   `json:"cidade"`
	PesoPedido       *float64 `json:"peso_pedido"`
	Endereco         string   `json:"endereco"`
	TotalNota        *float64 `json:"total_nota"`
	FormaRecebimento string   `json:"forma_recebimento"`
	ValorRecebimento *float64 `json:"valor_recebimento"`
}

// Assemble merges the document header with one block's fields.
func Assemble(h ManifestHeader, f BlockFields) NoteRecord {
	return NoteRecord{
		Rota:             h.Rota,
		DataEmissao:      h.DataEmissao,
		DataPrevisao:     h.DataPrevisao,
		Motorista:        h.Motorista,
		Veiculo:          h.Veiculo,
		Carga:            h.Carga,
		NumeroNota:       f.NumeroNota,
		CodigoCliente:    f.CodigoCliente,
		NomeCliente:      f.NomeCliente,
		Pedido:           f.Pedido,
		Cidade:           f.Cidade,
		PesoPedido:       f.PesoPedido,
		Endereco:         f.Endereco,
		TotalNota:        f.TotalNota,
		FormaRecebimento: f.FormaRecebimento,
		ValorRecebimento: f.ValorRecebimento,
	}
}

// Values returns the record cells in Columns() order. Numeric fields are
// float64 or nil.
func (r NoteRecord) Values() []any {
	return []any{
		r.Rota,
		r.DataEmissao,
		r.DataPrevisao,
		r.Motorista,
		r.Veiculo,
		r.Carga,
		r.NumeroNota,
		r.CodigoCliente,
		r.NomeCliente,
		r.Pedido,
		r.Cidade,
		floatOrNil(r.PesoPedido),
		r.Endereco,
		floatOrNil(r.TotalNota),
		r.FormaRecebimento,
		floatOrNil(r.ValorRecebimento),
	}
}

// Map returns the record keyed by column name.
func (r NoteRecord) Map() map[string]any {
	vals := r.Values()
	out := make(map[string]any, len(columns))
	for i, c := range columns {
		out[c] = vals[i]
	}
	return out
}

func floatOrNil(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}
