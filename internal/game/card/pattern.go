package card

// Tipos de padrão vencedor, na ordem em que são verificados.
const (
	PatternHorizontal   = "horizontal"
	PatternVertical     = "vertical"
	PatternDiagonalDown = "diagonal_down"
	PatternDiagonalUp   = "diagonal_up"
	PatternCorners      = "corners"
)

// Pattern descreve qual padrão completou a cartela. Row e Col são
// ponteiros porque só fazem sentido para padrões de linha/coluna e
// precisam sobreviver à serialização mesmo valendo zero.
type Pattern struct {
	Type string `json:"type"`
	Row  *int   `json:"row,omitempty"`
	Col  *int   `json:"col,omitempty"`
}

// cells devolve as cinco posições (row, col) que o padrão exige.
func (p Pattern) cells() [5][2]int {
	var out [5][2]int
	switch p.Type {
	case PatternHorizontal:
		for i := 0; i < Size; i++ {
			out[i] = [2]int{*p.Row, i}
		}
	case PatternVertical:
		for i := 0; i < Size; i++ {
			out[i] = [2]int{i, *p.Col}
		}
	case PatternDiagonalDown:
		for i := 0; i < Size; i++ {
			out[i] = [2]int{i, i}
		}
	case PatternDiagonalUp:
		for i := 0; i < Size; i++ {
			out[i] = [2]int{Size - 1 - i, i}
		}
	case PatternCorners:
		out = [5][2]int{{0, 0}, {0, Size - 1}, {Size - 1, 0}, {Size - 1, Size - 1}, {Size / 2, Size / 2}}
	}
	return out
}

// allPatterns lista os 12 padrões na ordem FIXA de verificação:
// linhas 0..4, colunas 0..4, diagonal principal, diagonal secundária,
// quatro cantos + centro. Essa ordem é o desempate oficial: quando mais
// de um padrão completa ao mesmo tempo, vale o primeiro da lista.
func allPatterns() []Pattern {
	patterns := make([]Pattern, 0, 12)
	for row := 0; row < Size; row++ {
		r := row
		patterns = append(patterns, Pattern{Type: PatternHorizontal, Row: &r})
	}
	for col := 0; col < Size; col++ {
		c := col
		patterns = append(patterns, Pattern{Type: PatternVertical, Col: &c})
	}
	patterns = append(patterns,
		Pattern{Type: PatternDiagonalDown},
		Pattern{Type: PatternDiagonalUp},
		Pattern{Type: PatternCorners},
	)
	return patterns
}

// WinningPattern retorna o primeiro padrão completo na ordem fixa de
// verificação, ou nil se a cartela ainda não venceu.
func (c *Card) WinningPattern() *Pattern {
	for _, p := range allPatterns() {
		complete := true
		for _, cell := range p.cells() {
			if !c.marked[cell[0]][cell[1]] {
				complete = false
				break
			}
		}
		if complete {
			match := p
			return &match
		}
	}
	return nil
}

// HasWon informa se algum padrão está completo.
func (c *Card) HasWon() bool {
	return c.WinningPattern() != nil
}
