package textextract

import "testing"

func TestDecodeContentStream(t *testing.T) {
	cases := []struct {
		name   string
		stream string
		want   string
	}{
		{
			name:   "td moves split lines",
			stream: "BT\n/F1 12 Tf\n72 720 Td\n(Emiss\\343o: 01/02/2024) Tj\n0 -14 Td\n(Motorista: JOAO) Tj\nET",
			want:   "Emissão: 01/02/2024\nMotorista: JOAO",
		},
		{
			name:   "horizontal td is a space",
			stream: "BT (Peso) Tj 40 0 Td (Pedido:) Tj ET",
			want:   "Peso Pedido:",
		},
		{
			name:   "tj array gaps",
			stream: "BT [(Total) -250 (da) 120 (Nota)] TJ ET",
			want:   "Total daNota",
		},
		{
			name:   "quote operator",
			stream: "BT (linha1) Tj (linha2) ' ET",
			want:   "linha1\nlinha2",
		},
		{
			name:   "double quote operator",
			stream: "BT (a) Tj 1 2 (b) \" ET",
			want:   "a\nb",
		},
		{
			name:   "hex and utf16",
			stream: "BT <48656C6C6F> Tj T* <FEFF00E7> Tj ET",
			want:   "Hello\nç",
		},
		{
			name:   "tm rows",
			stream: "BT 1 0 0 1 50 700 Tm (A) Tj 1 0 0 1 150 700 Tm (B) Tj 1 0 0 1 50 680 Tm (C) Tj ET",
			want:   "A B\nC",
		},
		{
			name:   "escapes and nesting",
			stream: `BT (a\(b\) (c)) Tj ET`,
			want:   "a(b) (c)",
		},
		{
			name:   "separate text objects",
			stream: "BT (one) Tj ET BT (two) Tj ET",
			want:   "one\ntwo",
		},
		{
			name:   "inline image skipped",
			stream: "BI /W 1 /H 1 ID \x00\xffEI garbage EI\nBT (ok) Tj ET",
			want:   "ok",
		},
		{
			name:   "comments and marked content",
			stream: "% header\n/P <</MCID 0>> BDC BT (x) Tj ET EMC",
			want:   "x",
		},
		{
			name:   "empty",
			stream: "",
			want:   "",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := decodeContentStream([]byte(tc.stream)); got != tc.want {
				t.Fatalf("decodeContentStream() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestDecodePDFText(t *testing.T) {
	if got := decodePDFText([]byte{'C', 'a', 'r', 'g', 'a', ' ', 0xE7}); got != "Carga ç" {
		t.Fatalf("winansi decode = %q", got)
	}
	if got := decodePDFText([]byte{0xFE, 0xFF, 0x00, 'R', 0x00, '$'}); got != "R$" {
		t.Fatalf("utf16 decode = %q", got)
	}
}
