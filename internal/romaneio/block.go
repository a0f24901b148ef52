package romaneio

import "strings"

var (
	reNumeroNota = compile(`(?i)^\s*(\d{3,5}-\d{3,})`)
	reNome       = compile(`(?i)Nome:\s*([^\n]+)`)
	reCodigoNome = compile(`^(\d+)\s*-\s*(.+)`)
	rePedido     = compile(`(?i)Pedido:\s*([^\n]+)`)
	reCidade     = compile(`(?i)Cidade:\s*([^\n]+)`)
	rePeso       = compile(`(?i)Peso\s*Pedido:\s*([0-9.,]+)`)
	reEndereco   = compile(`(?i)Endere[cç]o:\s*([^\n]+)`)
	reTotalNota  = compile(`(?i)Total\s+da\s+Nota:\s*R?\$?\s*([0-9.,]+)`)
	// payment instrument text sits between the label and the amount, possibly across lines
	reDuplicata = compile(`(?is)Duplicata\s+a\s+Receber\s*(.*?)\s*Valor:\s*R?\$?\s*([0-9.,]+)`)
)

// ParseBlockFields extracts the per-note fields of a single block.
func ParseBlockFields(block string) BlockFields {
	f := BlockFields{
		NumeroNota: findGroup(reNumeroNota, block),
		Pedido:     findGroup(rePedido, block),
		Cidade:     findGroup(reCidade, block),
		PesoPedido: ParseNumber(findGroup(rePeso, block)),
		Endereco:   findGroup(reEndereco, block),
		TotalNota:  ParseNumber(findGroup(reTotalNota, block)),
	}
	f.CodigoCliente, f.NomeCliente = splitNome(findGroup(reNome, block))

	if m := reDuplicata.FindStringSubmatch(block); m != nil {
		f.FormaRecebimento = strings.TrimSpace(m[1])
		f.ValorRecebimento = ParseNumber(m[2])
	}
	return f
}

// ParseBlock parses one note block and merges it with the document header.
func ParseBlock(block string, h ManifestHeader) NoteRecord {
	return Assemble(h, ParseBlockFields(block))
}

// splitNome separates "10 - Cliente X" into client code and name. Lines
// without a leading code are taken whole as the name.
func splitNome(line string) (codigo, nome string) {
	if line == "" {
		return "", ""
	}
	if m := reCodigoNome.FindStringSubmatch(line); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
	}
	return "", line
}
