package card

import (
	"errors"
	"math/rand"
	"strings"

	"github.com/google/uuid"
)

// Size é a dimensão da grade da cartela. Sempre 5x5, com o centro livre.
const Size = 5

// FreeCell é o valor sentinela da célula central. Ela já nasce marcada.
const FreeCell = "FREE"

// poolSize é quantas palavras únicas precisamos para preencher a grade
// (25 células menos o centro livre).
const poolSize = Size*Size - 1

// ErrNotEnoughWords é retornado quando a lista de palavras, depois de
// limpa, não tem palavras únicas suficientes para montar uma cartela.
var ErrNotEnoughWords = errors.New("word list must contain at least 24 unique words")

// Card é a cartela de um único jogador: a grade de palavras e o estado
// de marcação. A identidade é imutável; só o estado de marcação muda.
type Card struct {
	id       string
	playerID string
	grid     [Size][Size]string
	marked   [Size][Size]bool
}

// CleanWords normaliza uma lista de palavras: remove espaços das pontas,
// descarta entradas vazias e deduplica de forma case-insensitive,
// preservando a primeira ocorrência de cada palavra.
func CleanWords(words []string) []string {
	seen := make(map[string]bool, len(words))
	cleaned := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		key := strings.ToLower(w)
		if seen[key] {
			continue
		}
		seen[key] = true
		cleaned = append(cleaned, w)
	}
	return cleaned
}

// Generate cria uma cartela nova para o jogador a partir da lista de
// palavras. A lista é limpa, embaralhada (Fisher-Yates) e as 24 primeiras
// palavras são dispostas em ordem row-major, pulando o centro (2,2) que é
// fixo em FREE. Cada chamada gera uma identidade nova, mesmo com entradas
// idênticas.
func Generate(playerID string, words []string) (*Card, error) {
	pool := CleanWords(words)
	if len(pool) < poolSize {
		return nil, ErrNotEnoughWords
	}

	// Fisher-Yates sobre uma cópia, para não mexer na lista do chamador.
	shuffled := make([]string, len(pool))
	copy(shuffled, pool)
	for i := len(shuffled) - 1; i > 0; i-- {
		j := rand.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}

	c := &Card{
		id:       uuid.NewString(),
		playerID: playerID,
	}

	next := 0
	for row := 0; row < Size; row++ {
		for col := 0; col < Size; col++ {
			if row == Size/2 && col == Size/2 {
				c.grid[row][col] = FreeCell
				c.marked[row][col] = true
				continue
			}
			c.grid[row][col] = shuffled[next]
			next++
		}
	}

	return c, nil
}

func (c *Card) ID() string       { return c.id }
func (c *Card) PlayerID() string { return c.playerID }

// MarkWord procura a palavra na grade (comparação case-insensitive, com
// espaços das pontas removidos) e marca a PRIMEIRA célula que bater, em
// ordem row-major. Retorna true se encontrou, false caso contrário.
// Marcar uma célula já marcada é idempotente: retorna true sem efeito.
func (c *Card) MarkWord(word string) bool {
	target := strings.ToLower(strings.TrimSpace(word))
	for row := 0; row < Size; row++ {
		for col := 0; col < Size; col++ {
			if strings.ToLower(c.grid[row][col]) == target {
				c.marked[row][col] = true
				return true
			}
		}
	}
	return false
}

// Grid retorna uma cópia da grade em slices, pronta para serialização.
func (c *Card) Grid() [][]string {
	out := make([][]string, Size)
	for row := 0; row < Size; row++ {
		out[row] = make([]string, Size)
		copy(out[row], c.grid[row][:])
	}
	return out
}

// Marked retorna uma cópia do estado de marcação.
func (c *Card) Marked() [][]bool {
	out := make([][]bool, Size)
	for row := 0; row < Size; row++ {
		out[row] = make([]bool, Size)
		copy(out[row], c.marked[row][:])
	}
	return out
}
