package conversation

import (
	"fmt"
	"strings"

	"github.com/maiyu/lanchonete-bot/internal/menu"
)

// Reply rendering. Every function here is pure: identical inputs always
// produce byte-identical output.

func formatPrice(price float64) string {
	return fmt.Sprintf("R$%.2f", price)
}

// RenderMenu renders the catalog listing: a header, one line per item per
// category with a blank separator between categories, and a footer prompt.
func RenderMenu(m *menu.Menu) string {
	var b strings.Builder
	b.WriteString("Aqui está nosso cardápio:\n")
	for _, item := range m.Lanches {
		fmt.Fprintf(&b, "%d. %s - %s\n", item.ID, item.Name, formatPrice(item.Price))
	}
	b.WriteString("\n")
	for _, item := range m.Bebidas {
		fmt.Fprintf(&b, "%d. %s - %s\n", item.ID, item.Name, formatPrice(item.Price))
	}
	b.WriteString("\nDigite o número do item para pedir!")
	return b.String()
}

// RenderOrderSummary renders the itemized order in insertion order followed
// by the total, with prices formatted to two decimals.
func RenderOrderSummary(order []menu.Item) string {
	var total float64
	var b strings.Builder
	b.WriteString("Seu pedido:\n")
	for _, item := range order {
		fmt.Fprintf(&b, "- %s (%s)\n", item.Name, formatPrice(item.Price))
		total += item.Price
	}
	fmt.Fprintf(&b, "Total: %s", formatPrice(total))
	return b.String()
}

// RenderConfirmPrompt is appended to the order summary when the engine asks
// the customer to close the order.
func RenderConfirmPrompt() string {
	return `Confirme com "sim" ou adicione mais itens!`
}

// RenderEmptyOrderPrompt is the reply for a finalize attempt with no items.
func RenderEmptyOrderPrompt() string {
	return "Seu pedido está vazio. Quer adicionar algo antes de finalizar?"
}

// RenderItemAdded confirms that an item was appended to the order.
func RenderItemAdded(item menu.Item) string {
	return fmt.Sprintf(`%s adicionado ao pedido! Quer mais alguma coisa? Digite o número ou "finalizar".`, item.Name)
}

// RenderItemNotFound is the reply for a numeric id absent from the catalog.
func RenderItemNotFound() string {
	return "Item não encontrado. Digite um número válido do cardápio!"
}

// RenderConfirmation acknowledges a confirmed order.
func RenderConfirmation() string {
	return "Pedido confirmado! Em breve entraremos em contato. Obrigado!"
}
