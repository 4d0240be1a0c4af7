package conversation

import (
	"fmt"
	"strings"

	"github.com/devdanielvaldez/autoclinic-bot/internal/bookings"
	"github.com/devdanielvaldez/autoclinic-bot/internal/catalog"
)

const (
	generalPersona = "Eres un asistente virtual de Auto Clinic RD, una empresa especializada en detailing y car wash. " +
		"Responde de manera amable, humana y concisa."
	servicesPersona = "Eres Alexa, especialista en servicios de Auto Clinic RD. " +
		"Solo conversas sobre tipos de lavado, detailing, tratamientos especiales, precios, duración y recomendaciones para el vehículo del cliente. " +
		"Responde de manera amable, humana y concisa."

	promptInstructions = `INSTRUCCIONES:
- Responde en español, en no más de 3 o 4 oraciones.
- Usa solo la información de este mensaje; si no sabes algo, invita a llamar al número de contacto.
- No inventes precios, horarios ni reservaciones.
- Si el cliente quiere reservar, dile que escriba "reservar".
- Si el cliente pregunta por el estado de su vehículo, pídele su código de confirmación.
- Responde directamente sin usar etiquetas XML como <think>.`
)

// buildSystemPrompt assembles the persona and reference blocks for one turn.
// Topic mode gets the narrower services persona without bookings or bar data.
func buildSystemPrompt(req Request) []string {
	snap := req.Catalog
	company := catalog.DefaultCompany
	if snap != nil {
		company = snap.Company.WithDefaults()
	}

	blocks := make([]string, 0, 6)
	if req.Topic == "" {
		blocks = append(blocks, generalPersona)
	} else {
		blocks = append(blocks, servicesPersona)
	}
	if name := strings.TrimSpace(req.DisplayName); name != "" {
		blocks = append(blocks, fmt.Sprintf("El cliente se llama %s.", name))
	}
	blocks = append(blocks, companyBlock(company))
	if snap != nil {
		blocks = append(blocks, packagesBlock(snap.Packages))
	}
	if req.Topic == "" {
		blocks = append(blocks, bookingsBlock(req.Bookings))
		if snap != nil {
			if bar := barBlock(snap); bar != "" {
				blocks = append(blocks, bar)
			}
		}
	}
	blocks = append(blocks, promptInstructions)
	return blocks
}

func companyBlock(c catalog.Company) string {
	var b strings.Builder
	b.WriteString("INFORMACIÓN DE LA EMPRESA:\n")
	fmt.Fprintf(&b, "- Nombre: %s\n", c.Name)
	fmt.Fprintf(&b, "- Descripción: %s\n", c.Description)
	fmt.Fprintf(&b, "- Misión: %s\n", c.Mission)
	fmt.Fprintf(&b, "- Visión: %s\n", c.Vision)
	fmt.Fprintf(&b, "- Valores: %s\n", strings.Join(c.Values, ", "))
	fmt.Fprintf(&b, "- Servicios: %s\n", strings.Join(c.Services, ", "))
	fmt.Fprintf(&b, "- Dirección: %s, %s\n", c.Location.Address, c.Location.City)
	fmt.Fprintf(&b, "- Horarios: Lunes a Viernes %s; Sábado %s; Domingo %s\n", c.Hours.Weekdays, c.Hours.Saturday, c.Hours.Sunday)
	fmt.Fprintf(&b, "- Contacto: %s, %s, Instagram %s", c.Contact.Phone, c.Contact.Email, c.Contact.Instagram)
	return b.String()
}

func packagesBlock(pkgs []catalog.Package) string {
	if len(pkgs) == 0 {
		return "COMBOS DE LAVADO: no hay combos disponibles en este momento."
	}
	var b strings.Builder
	b.WriteString("COMBOS DE LAVADO:")
	for _, p := range pkgs {
		b.WriteString("\n🏁 ")
		b.WriteString(p.Name)
		if p.Popular {
			b.WriteString(" (MÁS POPULAR)")
		}
		fmt.Fprintf(&b, "\n  Precios: Pequeño %s, Mediano %s, Grande %s",
			catalog.FormatPrice(p.Prices.Small), catalog.FormatPrice(p.Prices.Medium), catalog.FormatPrice(p.Prices.Large))
		if len(p.Services) > 0 {
			fmt.Fprintf(&b, "\n  Incluye: %s", strings.Join(p.Services, ", "))
		}
	}
	return b.String()
}

func bookingsBlock(list []bookings.Booking) string {
	if len(list) == 0 {
		return "RESERVACIONES DEL CLIENTE: ninguna registrada."
	}
	var b strings.Builder
	b.WriteString("RESERVACIONES DEL CLIENTE:")
	for _, bk := range list {
		fmt.Fprintf(&b, "\n- %s: %s, %s a las %s, estado %s",
			bk.ConfirmationNumber, bk.PackageName, bk.PreferredDate, bk.PreferredTime, bk.Status.Label())
	}
	return b.String()
}

func barBlock(snap *catalog.Snapshot) string {
	cats := snap.ActiveCategories()
	if len(cats) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("MENÚ DEL RACING BAR:")
	for _, c := range cats {
		items := snap.AvailableItems(c.ID)
		if len(items) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n%s:", c.Name)
		for _, item := range items {
			fmt.Fprintf(&b, "\n  - %s %s", item.Name, catalog.FormatPrice(item.Price))
		}
	}
	return b.String()
}

// buildMessages converts the recent window into chat messages, making sure
// the current message is the final user turn. User turns go through the
// prompt guard again; blocked ones are dropped.
func buildMessages(recent []Turn, message string) []ChatMessage {
	out := make([]ChatMessage, 0, len(recent)+1)
	for _, t := range recent {
		if t.Role == ChatRoleAssistant {
			out = append(out, ChatMessage{Role: ChatRoleAssistant, Content: t.Text})
			continue
		}
		turn, ok := UserTurn(t.Text)
		if !ok {
			continue
		}
		out = append(out, ChatMessage{Role: ChatRoleUser, Content: turn.Text})
	}
	if n := len(out); n == 0 || out[n-1].Role != ChatRoleUser || out[n-1].Content != message {
		out = append(out, ChatMessage{Role: ChatRoleUser, Content: message})
	}
	return out
}
