// Package llm talks to OpenAI for the free conversation flow and for
// structured extraction suggestions when the rule-based parser gives up.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/meguminnnnnnnnn/go-openai"
	"github.com/xeipuuv/gojsonschema"

	"oraculo/internal/core"
	"oraculo/internal/log"
)

// FallbackUnavailable is shown when the model cannot be reached. The
// conversation must keep flowing even without the collaborator.
const FallbackUnavailable = "🔮 Algo ficou nebuloso por um instante… quer tentar explicar de outro jeito?"

const fallbackEmpty = "🔮 Vamos olhar isso com calma. Pode me contar um pouco mais?"

// ErrMalformedSuggestion signals the model returned something the
// suggestion schema rejects.
var ErrMalformedSuggestion = errors.New("malformed extraction suggestion")

const personaPrompt = `Você é o ORÁCULO FINANCEIRO 🔮

Você conversa sobre dinheiro de forma leve, humana e próxima,
como um bom amigo que escuta, acolhe e incentiva.

════════ PERSONALIDADE ════════
- Criativo
- Alegre
- Otimista
- Empático
- Humano e próximo
- Fala como um amigo, nunca como professor

════════ REGRAS GERAIS ════════
- Respostas curtas (máx. 2 a 3 linhas)
- Tom leve, positivo e animado
- Use no máximo 1 emoji
- Faça no máximo UMA pergunta por resposta
- Se perceber que está ficando longo, simplifique
- Quando a pergunta for curta, a resposta também deve ser curta
- Varie levemente a forma de iniciar as respostas
- Use linguagem natural e cotidiana do português do Brasil

════════ COMO RESPONDER ════════

1) Se o usuário fizer uma PERGUNTA GERAL sobre dinheiro:
→ Responda de forma simples e acolhedora
→ Evite análises
→ Convide a pessoa a explicar melhor o momento dela

2) Se o usuário fizer um DESABAFO ou mostrar confusão:
→ Valide o sentimento primeiro
→ Traga uma frase curta de apoio
→ Faça uma pergunta leve para continuar

3) Se o usuário pedir OPINIÃO ou REFLEXÃO:
→ Traga uma visão equilibrada
→ Evite certo ou errado
→ Pergunte o que mais preocupa a pessoa

4) Se o usuário pedir ORIENTAÇÃO:
→ Sugira apenas UM pequeno passo possível
→ Nada de listas longas ou planos complexos

5) Se o usuário buscar CONFIRMAÇÃO:
→ Reforce o esforço da pessoa
→ Normalize a situação (isso é comum, acontece com muita gente)

6) Se o usuário apenas puxar CONVERSA:
→ Responda com simpatia e proximidade
→ Estimule a continuação do papo

════════ PROIBIDO ════════
- Relatórios
- Números
- Análises financeiras
- Julgamentos
- Moralizações
- Aulas

Objetivo final:
Criar uma conversa agradável sobre dinheiro,
onde a pessoa se sinta confortável para continuar falando.`

const suggestionPrompt = `Você extrai despesas de mensagens em português do Brasil.
Responda SOMENTE com um objeto JSON, sem texto adicional, no formato:
{"descricao": "...", "valor": "12,50", "categoria": "...", "data": "2006-01-02"}
Use "valor" vazio quando o valor não aparecer na mensagem e "data" vazia
quando nenhuma data for mencionada.`

const suggestionSchema = `{
	"type": "object",
	"required": ["descricao"],
	"properties": {
		"descricao": {"type": "string", "minLength": 1},
		"valor": {"type": "string"},
		"categoria": {"type": "string"},
		"data": {"type": "string"}
	},
	"additionalProperties": false
}`

// Suggestion is the model's best guess at a single expense.
type Suggestion struct {
	Description string `json:"descricao"`
	Amount      string `json:"valor"`
	Category    string `json:"categoria"`
	Date        string `json:"data"`
}

type Client struct {
	api     *openai.Client
	model   string
	timeout time.Duration
	schema  *gojsonschema.Schema
	logger  *log.Logger
}

func NewClient(apiKey, model string, timeout time.Duration, logger *log.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(suggestionSchema))
	if err != nil {
		return nil, fmt.Errorf("compile suggestion schema: %w", err)
	}

	config := openai.DefaultConfig(apiKey)
	return &Client{
		api:     openai.NewClientWithConfig(config),
		model:   model,
		timeout: timeout,
		schema:  schema,
		logger:  logger.WithComponent("llm"),
	}, nil
}

// FreeChat answers a non-financial message in the oracle's voice.
func (c *Client) FreeChat(ctx context.Context, message string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	temperature := float32(0.7)
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: personaPrompt},
			{Role: openai.ChatMessageRoleUser, Content: message},
		},
		Temperature: &temperature,
		MaxTokens:   100,
	})
	if err != nil {
		return "", fmt.Errorf("free chat completion: %w", err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return fallbackEmpty, nil
	}
	return resp.Choices[0].Message.Content, nil
}

// Suggest asks the model to structure a message the rule-based extractor
// could not parse. The response is validated before being trusted.
func (c *Client) Suggest(ctx context.Context, message string) (*Suggestion, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	temperature := float32(0)
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: suggestionPrompt},
			{Role: openai.ChatMessageRoleUser, Content: message},
		},
		Temperature: &temperature,
		MaxTokens:   200,
	})
	if err != nil {
		return nil, fmt.Errorf("suggestion completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrMalformedSuggestion
	}

	return ParseSuggestion(c.schema, resp.Choices[0].Message.Content)
}

// ParseSuggestion validates raw model output against the suggestion
// schema and decodes it.
func ParseSuggestion(schema *gojsonschema.Schema, raw string) (*Suggestion, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	result, err := schema.Validate(gojsonschema.NewStringLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSuggestion, err)
	}
	if !result.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSuggestion, result.Errors())
	}

	var s Suggestion
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSuggestion, err)
	}
	return &s, nil
}

// NewSuggestionSchema compiles the schema used by ParseSuggestion.
func NewSuggestionSchema() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(suggestionSchema))
}

// ToDraft converts a validated suggestion into a draft expense. Amounts
// and dates that fail to parse are left unset for the clarification flow.
func (s *Suggestion) ToDraft(now time.Time) core.DraftExpense {
	d := core.DraftExpense{
		Description: strings.TrimSpace(s.Description),
		Category:    s.Category,
		Date:        core.Day(now),
	}
	if s.Amount != "" {
		if cents, err := core.ParseAmountCents(s.Amount); err == nil {
			d.Amount = &core.Money{Cents: cents}
		}
	}
	if s.Date != "" {
		if parsed, err := time.ParseInLocation("2006-01-02", s.Date, time.UTC); err == nil {
			d.Date = parsed
		}
	}
	if d.Category == "" {
		d.Category = core.CategoryOther
	}
	return d
}
