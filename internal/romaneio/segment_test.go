package romaneio

import "testing"

func TestSplitBlocks_NoteIDs(t *testing.T) {
	text := "600 PEDRO LEOPOLDO\nMotorista: João\n" +
		"1552-24995\nNome: 10 - Cliente X\nPedido: 99\n" +
		"  748-12263\nNome: Loja Y\n\n" +
		"1552-25001 continua\nPedido: 100\n"

	blocks := SplitBlocks(text)
	if len(blocks) != 3 {
		t.Fatalf("Expected 3 blocks, got %d: %q", len(blocks), blocks)
	}
	want := []string{
		"1552-24995\nNome: 10 - Cliente X\nPedido: 99",
		"748-12263\nNome: Loja Y",
		"1552-25001 continua\nPedido: 100",
	}
	for i := range want {
		if blocks[i] != want[i] {
			t.Errorf("block %d: expected %q, got %q", i, want[i], blocks[i])
		}
	}
}

func TestSplitBlocks_IgnoresIDsInsideLines(t *testing.T) {
	text := "Veículo: ABC-1234\nRef 1552-24995\n12-345\n123456-789\n"
	if blocks := SplitBlocks(text); len(blocks) != 0 {
		t.Errorf("Expected no blocks, got %q", blocks)
	}
}

func TestSplitBlocks_PedidoFallback(t *testing.T) {
	text := "600 ROTA TESTE\n" +
		"Pedido: 111\nNome: A\nCidade: X\n" +
		"Peso Pedido: 3,5\n" +
		"Pedido: 222\nNome: B\n"

	blocks := SplitBlocks(text)
	if len(blocks) != 2 {
		t.Fatalf("Expected 2 blocks, got %d: %q", len(blocks), blocks)
	}
	if blocks[0] != "Pedido: 111\nNome: A\nCidade: X\nPeso Pedido: 3,5" {
		t.Errorf("unexpected first block %q", blocks[0])
	}
	if blocks[1] != "Pedido: 222\nNome: B" {
		t.Errorf("unexpected second block %q", blocks[1])
	}
}

func TestSplitBlocks_FallbackOnlyWhenNoNoteIDs(t *testing.T) {
	text := "Pedido: 1\n1552-24995\nPedido: 2\n"
	blocks := SplitBlocks(text)
	if len(blocks) != 1 {
		t.Fatalf("Expected 1 block from the primary strategy, got %d: %q", len(blocks), blocks)
	}
	if blocks[0] != "1552-24995\nPedido: 2" {
		t.Errorf("unexpected block %q", blocks[0])
	}
}

func TestSplitBlocks_NoMatches(t *testing.T) {
	blocks := SplitBlocks("sem notas\npedido: 12\n")
	if blocks == nil {
		t.Fatal("Expected empty, non-nil slice")
	}
	if len(blocks) != 0 {
		t.Errorf("Expected 0 blocks, got %q", blocks)
	}
}

func TestSplitBlocks_NonBreakingIndent(t *testing.T) {
	text := "cabecalho\n\u00a01552-24995\nNome: A\n\u00a0\u00a0748-12263\nNome: B\n"
	blocks := SplitBlocks(text)
	if len(blocks) != 2 {
		t.Fatalf("Expected 2 blocks, got %d: %q", len(blocks), blocks)
	}
	if blocks[1] != "748-12263\nNome: B" {
		t.Errorf("unexpected second block %q", blocks[1])
	}

	blocks = SplitBlocks("\u00a0Pedido:\u00a0111\nNome: A\n")
	if len(blocks) != 1 {
		t.Fatalf("Expected 1 pedido block, got %d: %q", len(blocks), blocks)
	}
}
