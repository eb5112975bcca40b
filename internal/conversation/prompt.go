package conversation

import (
	"encoding/json"
	"fmt"

	"github.com/maiyu/lanchonete-bot/internal/menu"
)

// SystemPrompt is the persona instruction sent on every language model call.
func SystemPrompt(botName string) string {
	return fmt.Sprintf("Você é um atendente de uma lanchonete chamado %s. Responda como %s incluindo seu nome na primeira saudação apenas.", botName, botName)
}

// BuildPrompt produces the user-turn prompt for the language model from the
// conversation phase and the raw inbound text. Pure: it performs no I/O and
// does not mutate its inputs.
func BuildPrompt(botName string, m *menu.Menu, state State, text string) string {
	switch state.Phase {
	case PhaseStart:
		return fmt.Sprintf(`Você é um atendente de uma lanchonete chamado %s. O cliente disse: "%s". Responda de forma amigável e sugira opções como "ver cardápio", "fazer pedido" ou "ajuda".`, botName, text)
	case PhaseOrdering:
		return fmt.Sprintf(`Você é um atendente de uma lanchonete chamado %s. O cliente está fazendo um pedido e disse: "%s". O cardápio é: %s. Identifique o item pedido ou peça esclarecimentos. Responda apenas com a mensagem, sem explicações extras.`, botName, text, mustJSON(m))
	case PhaseConfirming:
		return fmt.Sprintf(`Você é um atendente de uma lanchonete chamado %s. O pedido atual é: %s. O cliente disse: "%s". Confirme o pedido ou ajuste conforme solicitado. Sugira "finalizar" ou "adicionar mais itens".`, botName, mustJSON(state.Order), text)
	default:
		return text
	}
}

// mustJSON marshals catalog data for prompt embedding. The inputs are plain
// value types, so marshalling cannot fail at runtime.
func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}
