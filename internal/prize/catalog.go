package prize

import "scratchcard/internal/models"

// catalog is the fixed, ordered prize table. The last entry carries a zero
// weight and can never be drawn; it is kept so the table matches the
// published promotion.
var catalog = []models.PrizeEntry{
	{
		Text:        "¡10% de descuento en tu próxima compra!",
		Icon:        "🎉",
		Type:        models.PrizeDiscount,
		Description: "Aplica el código SNACK10 al finalizar tu compra",
		Weight:      25,
	},
	{
		Text:        "¡Producto gratis en tu siguiente compra!",
		Icon:        "🆓",
		Type:        models.PrizeFreeProduct,
		Description: "Válido para productos de hasta $50.000",
		Weight:      20,
	},
	{
		Text:        "PepinSnack Extra! 🥒",
		Icon:        "🥒",
		Type:        models.PrizeFreeShipping,
		Description: "¡Recibe una porcion extra de PepinSnack en tu proximo pedido!",
		Weight:      15,
	},
	{
		Text:        "Nada por hoy, ¡intenta de nuevo mañana!",
		Icon:        "😊",
		Type:        models.PrizeTryAgain,
		Description: "¡No te desanimes! Mañana tendrás otra oportunidad",
		Weight:      40,
	},
	{
		Text:        "¡🍎 ManzanaBox 2x1!",
		Icon:        "🍎",
		Type:        models.PrizeFreeShipping,
		Description: "¡Lleva dos ManzanaBox y paga solo una! Oferta especial para ti.",
		Weight:      0,
	},
}

// Catalog returns a copy of the fixed prize catalog.
func Catalog() []models.PrizeEntry {
	out := make([]models.PrizeEntry, len(catalog))
	copy(out, catalog)
	return out
}
