package nlp

import (
	"strings"

	"oraculo/internal/core"
)

// categoryEntry pairs a category with its trigger vocabulary. Declaration
// order is the tie-break: the first category reaching the best score wins.
type categoryEntry struct {
	name     string
	keywords []string
}

// Canonical category table. Keywords are matched as substrings of the
// normalized description, so accented spellings are covered by a single
// unaccented entry.
var categoryTable = []categoryEntry{
	{"Alimentação", []string{
		"comi", "almocei", "jantei", "lanchei", "pedi comida", "comer fora", "comi fora",
		"gastei com comida", "gastei em comida",
		"lanche", "pastel", "coxinha", "pizza", "hamburguer", "sushi", "esfiha",
		"marmita", "prato feito", "self service", "buffet", "rodizio",
		"restaurante", "lanchonete", "padaria", "cafeteria",
		"cafe", "bebida", "suco", "refrigerante", "cerveja",
		"ifood", "delivery", "pedido comida",
		"mercado", "supermercado", "atacadao", "assai", "extra", "carrefour",
	}},
	{"Transporte", []string{
		"abasteci", "abastecer", "fui de uber", "peguei uber", "peguei 99",
		"gastei com transporte", "corrida",
		"gasolina", "etanol", "diesel", "combustivel",
		"posto de gasolina", "abastecimento",
		"uber", "99", "taxi", "onibus", "metro", "trem", "passagem",
		"estacionamento", "pedagio",
		"oficina", "mecanico",
		"lavagem", "lava jato", "lavacar",
	}},
	{"Moradia", []string{
		"paguei aluguel", "paguei condominio", "conta de casa", "gastei com casa",
		"aluguel", "condominio",
		"luz", "energia", "conta de luz", "conta de energia",
		"agua", "conta de agua",
		"internet", "telefone", "iptu",
		"gas de cozinha", "botijao",
		"reparo", "conserto", "manutencao",
		"faxina", "limpeza", "diarista",
	}},
	{"Saúde", []string{
		"fui ao medico", "consulta medica", "gastei com saude",
		"medico", "dentista", "psicologo",
		"nutricionista", "fisioterapia", "terapia",
		"farmacia", "remedio",
		"hospital", "clinica",
		"exame", "checkup", "raio-x", "ultrassom", "ressonancia",
		"plano de saude", "convenio", "coparticipacao",
	}},
	{"Pets", []string{
		"gastei com pet", "levei no veterinario",
		"pet", "cachorro", "gato",
		"racao", "areia gato",
		"vacina", "remedio pet",
		"veterinario", "petshop",
		"banho", "tosa", "hotel pet", "creche pet",
	}},
	{"Dívidas", []string{
		"paguei fatura", "paguei divida", "parcelei", "renegociei",
		"fatura", "cartao", "cartao de credito",
		"pagamento minimo", "juros",
		"boleto", "financiamento", "emprestimo",
		"acordo", "renegociacao", "parcelamento",
		"atrasado", "em atraso", "consorcio",
	}},
	{"Compras", []string{
		"comprei", "fiz uma compra", "pedido", "encomenda",
		"roupa", "camisa", "camiseta", "calca", "tenis", "sapato",
		"celular", "notebook", "computador", "tablet", "televisao",
		"shopping", "loja",
		"amazon", "shopee", "mercado livre",
		"magalu", "casas bahia", "americanas", "shein",
	}},
	{"Lazer", []string{
		"viajei", "gastei com lazer",
		"cinema", "show", "evento", "festival",
		"viagem", "passeio", "bar", "balada", "churrasco",
		"hotel", "airbnb", "resort",
		"jogo", "game", "videogame", "psn", "xbox",
	}},
	{"Educação", []string{
		"estudei", "paguei curso", "mensalidade faculdade",
		"curso", "faculdade", "aula", "escola",
		"mensalidade", "apostila", "livro",
		"udemy", "alura", "coursera", "hotmart",
		"mba", "especializacao",
	}},
	{"Investimentos", []string{
		"investi", "apliquei", "fiz aporte", "aporte mensal",
		"investimento", "acoes", "fundo", "fii",
		"cdb", "lci", "lca", "tesouro", "tesouro direto",
		"previdencia", "poupanca",
		"cripto", "bitcoin", "renda fixa", "renda variavel",
	}},
	{"Assinaturas", []string{
		"assinatura", "plano mensal",
		"netflix", "spotify", "prime", "youtube premium",
		"apple music", "deezer",
		"chatgpt", "hostinger",
		"icloud", "google one", "dropbox",
		"office 365", "canva", "notion", "figma",
	}},
}

// Supplementary boosts: a strong domain word pushes clothing and
// electronics purchases toward Compras, and a purchase verb nudges the
// same way when nothing more specific matched.
var (
	clothingWords    = []string{"camiseta", "camisa", "blusa", "calca", "short", "bermuda", "jaqueta", "casaco", "roupa"}
	electronicsWords = []string{"celular", "notebook", "computador", "tablet", "televisao"}
	purchaseWords    = []string{"comprei", "compra", "pedido", "encomenda"}
)

const (
	keywordScore  = 2
	domainBoost   = 3
	purchaseBoost = 1
)

// ClassifyCategory scores the description against every category's trigger
// vocabulary and returns the best match, or "Outros" when nothing matches.
// Pure and deterministic: equal inputs always classify identically, and
// score ties resolve to the first-declared category.
func ClassifyCategory(description string) string {
	t := Normalize(description)

	best := core.CategoryOther
	bestScore := 0
	for _, entry := range categoryTable {
		score := 0
		for _, kw := range entry.keywords {
			if strings.Contains(t, kw) {
				score += keywordScore
			}
		}
		if entry.name == "Compras" {
			if containsAny(t, clothingWords) {
				score += domainBoost
			}
			if containsAny(t, electronicsWords) {
				score += domainBoost
			}
			if containsAny(t, purchaseWords) {
				score += purchaseBoost
			}
		}
		if score > bestScore {
			bestScore = score
			best = entry.name
		}
	}
	return best
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
