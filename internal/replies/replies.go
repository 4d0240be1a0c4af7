// Package replies renders the fixed customer-facing texts of the bot. Emphasis
// markers (*bold*) are literal WhatsApp formatting, not markup.
package replies

import (
	"fmt"
	"strings"

	"github.com/devdanielvaldez/autoclinic-bot/internal/bookings"
	"github.com/devdanielvaldez/autoclinic-bot/internal/catalog"
)

const (
	// AIExitHint is appended to assistant replies while an AI mode is active.
	AIExitHint = "\n\n💡 *Escribe \"salir\" para volver al menú principal*"

	separator = "   ════════════════════════"
)

func greeting(name string) string {
	if name = strings.TrimSpace(name); name != "" {
		return ", " + name
	}
	return ""
}

// MainMenu lists the eight top-level options.
func MainMenu(name string) string {
	return "👋 ¡Hola" + greeting(name) + "! ¡Bienvenido a *Auto Clinic RD*! 🚗💨\n\n" +
		"¿En qué puedo ayudarte hoy?\n\n" +
		"📅 *1. Crear Reservación* - Agenda tu servicio de lavado\n" +
		"🔍 *2. Mis Reservaciones* - Consulta el estado de tus citas\n" +
		"🛠️ *3. Ver Servicios* - Conversa sobre nuestros servicios\n" +
		"🎁 *4. Combos de Lavado* - Precios y paquetes disponibles\n" +
		"🍔 *5. Menú del Bar* - Comida y bebidas del Racing Bar\n" +
		"📍 *6. Ubicación y Horarios* - Encuéntranos y contáctanos\n" +
		"💬 *7. Conversar con Alexa* - Habla con nuestra asistente\n" +
		"👤 *8. Agente Humano* - Habla con una persona real\n\n" +
		"💡 *Escribe el número de tu opción (1-8) o \"menu\" para ver esto nuevamente:*"
}

// Packages renders the full combo listing followed by the book-or-return choice.
func Packages(snap *catalog.Snapshot, name string) string {
	if snap == nil || len(snap.Packages) == 0 {
		return "🎁 *COMBOS DE LAVADO*\n\n⚠️ No hay combos disponibles en este momento.\n\n" + MainMenu(name)
	}
	var b strings.Builder
	b.WriteString("🎁 *TODOS NUESTROS COMBOS DE LAVADO* 🚗💨\n\n")
	for i, p := range snap.Packages {
		fmt.Fprintf(&b, "✨ *COMBO %d: %s*", i+1, p.Name)
		if p.Popular {
			b.WriteString(" 👑 **MÁS SOLICITADO**")
		}
		fmt.Fprintf(&b, "\n   %s\n\n", p.Description)
		b.WriteString("   💰 *INVERSIÓN:*\n")
		fmt.Fprintf(&b, "      🚗 Vehículo Pequeño: *%s*\n", catalog.FormatPrice(p.Prices.Small))
		fmt.Fprintf(&b, "      🚙 Vehículo Mediano: *%s*\n", catalog.FormatPrice(p.Prices.Medium))
		fmt.Fprintf(&b, "      🚐 Vehículo Grande: *%s*\n\n", catalog.FormatPrice(p.Prices.Large))
		if len(p.Services) > 0 {
			b.WriteString("   🎯 *TODO LO INCLUIDO:*\n")
			for _, s := range p.Services {
				fmt.Fprintf(&b, "      ✨ %s\n", s)
			}
		}
		b.WriteString("\n" + separator + "\n\n")
	}
	b.WriteString("💡 *¿LISTO PARA DEJAR TU VEHÍCULO COMO NUEVO?*\n\n")
	b.WriteString("🚀 *1. ¡SÍ! QUIERO RESERVAR* → Iniciar proceso de agendado\n")
	b.WriteString("📋 *2. Volver al menú* → Explorar otras opciones\n\n")
	b.WriteString("*Responde con el número de tu decisión:*")
	return b.String()
}

// BarMenu lists available items per active category, or links to the bar page
// when the catalog has none.
func BarMenu(snap *catalog.Snapshot, name string) string {
	company := catalog.DefaultCompany
	if snap != nil {
		company = snap.Company.WithDefaults()
	}

	var body strings.Builder
	if snap != nil {
		for _, c := range snap.ActiveCategories() {
			items := snap.AvailableItems(c.ID)
			if len(items) == 0 {
				continue
			}
			fmt.Fprintf(&body, "\n🍽️ *%s*\n", strings.ToUpper(c.Name))
			for _, item := range items {
				fmt.Fprintf(&body, "• %s - *%s*\n", item.Name, catalog.FormatPrice(item.Price))
				if d := strings.TrimSpace(item.Description); d != "" {
					fmt.Fprintf(&body, "   %s\n", d)
				}
			}
		}
	}

	header := "🍔 *MENÚ DEL RACING BAR*" + greeting(name) + "\n\n"
	if body.Len() == 0 {
		return header + "Para ver nuestro menú completo y ordenar, visita:\n\n🔗 " + company.BarMenuURL +
			"\n\n¡Te esperamos! 🍔🍹\n\n" + MainMenu(name)
	}
	return header + strings.TrimPrefix(body.String(), "\n") + "\n🔗 " + company.BarMenuURL +
		"\n\n¡Te esperamos! 🍔🍹\n\n" + MainMenu(name)
}

// Location renders address, hours and contact channels.
func Location(company catalog.Company, name string) string {
	c := company.WithDefaults()
	return "📍 *UBICACIÓN Y HORARIOS*" + greeting(name) + "\n\n" +
		"🏢 " + c.Location.Address + "\n" +
		"🏙️ " + c.Location.City + "\n\n" +
		"🕒 *HORARIOS:*\n" +
		"Lunes a Viernes: " + c.Hours.Weekdays + "\n" +
		"Sábado: " + c.Hours.Saturday + "\n" +
		"Domingo: " + c.Hours.Sunday + "\n\n" +
		"📞 " + c.Contact.Phone + "\n" +
		"📧 " + c.Contact.Email + "\n" +
		"📸 " + c.Contact.Instagram + "\n\n" +
		MainMenu(name)
}

// MyBookings lists the customer's bookings, newest first.
func MyBookings(list []bookings.Booking, name string) string {
	if len(list) == 0 {
		return "📭 *No tienes reservaciones activas*\n\n" + MainMenu(name)
	}
	var b strings.Builder
	b.WriteString("📋 *TUS RESERVACIONES*\n\n")
	for i, bk := range list {
		fmt.Fprintf(&b, "📍 *Reserva %d:*\n", i+1)
		fmt.Fprintf(&b, "📦 %s\n", bk.PackageName)
		fmt.Fprintf(&b, "🚗 %s\n", bk.VehicleSize.Label())
		fmt.Fprintf(&b, "📅 %s\n", dateOrPlaceholder(bk.PreferredDate))
		fmt.Fprintf(&b, "⏰ %s\n", bk.PreferredTime)
		fmt.Fprintf(&b, "🏷️ %s\n", bk.Status.Label())
		fmt.Fprintf(&b, "🔢 %s\n\n", bk.ConfirmationNumber)
	}
	b.WriteString(MainMenu(name))
	return b.String()
}

// BookingsUnavailable replaces MyBookings when the store cannot be read.
func BookingsUnavailable(name string) string {
	return "❌ Error consultando reservaciones.\n\n" + MainMenu(name)
}

// StatusCard renders a looked-up booking.
func StatusCard(b *bookings.Booking) string {
	var notes string
	if n := strings.TrimSpace(b.Notes); n != "" {
		notes = "*Notas:* " + n + "\n"
	}
	return "📋 *Estado de tu Reservación*\n\n" +
		"*Código:* " + b.ConfirmationNumber + "\n" +
		"*Cliente:* " + b.CustomerName + "\n" +
		"*Paquete:* " + b.PackageName + "\n" +
		"*Vehículo:* " + b.VehicleInfo + "\n" +
		"*Tamaño:* " + b.VehicleSize.Name() + "\n" +
		"*Fecha preferida:* " + dateOrPlaceholder(b.PreferredDate) + "\n" +
		"*Hora:* " + b.PreferredTime + "\n\n" +
		"*Estado:* " + b.Status.Label() + "\n" +
		"*Total:* " + catalog.FormatPrice(b.Total) + "\n\n" +
		notes +
		"¿Necesitas ayuda adicional? Escribe *8* para conversar con un representante."
}

// LookupMiss invites the customer to retry a code that matched nothing.
func LookupMiss(code string) string {
	return "❌ No encontré una reservación con el código *" + code + "*.\n\n" +
		"Por favor, verifica el código e intenta nuevamente.\n\n" +
		"*Formato correcto:* AC40686909Z3HM"
}

// Apology is the generic backend-failure reply.
func Apology(phone string) string {
	return "❌ Estoy teniendo dificultades técnicas. Por favor, intenta nuevamente o contacta al *" + phone + "*"
}

// Handoff confirms the transfer to a human and names the reactivation token.
func Handoff(unpauseToken string) string {
	return "🔴 *TRANSFIRIENDO A AGENTE HUMANO*\n\n" +
		"Un especialista te atenderá pronto. El bot estará desactivado temporalmente.\n\n" +
		"Para reactivar el bot, escribe " + unpauseToken
}

// Reactivated answers the unpause token.
func Reactivated(name string) string {
	return "✅ Bot reactivado. ¿En qué puedo ayudarte?\n\n" + MainMenu(name)
}

// ServicesIntro opens topic AI mode.
func ServicesIntro(name string) string {
	return "🛠️ *CONVERSACIÓN SOBRE SERVICIOS*" + greeting(name) + "\n\n" +
		"¡Hola! Soy Alexa, especialista en servicios de Auto Clinic RD. 🚗\n\n" +
		"Pregúntame sobre:\n" +
		"• Tipos de lavado disponibles\n" +
		"• Servicios de detailing\n" +
		"• Tratamientos especiales\n" +
		"• Precios y duración\n" +
		"• Recomendaciones para tu vehículo\n\n" +
		"💡 *Escribe \"salir\" en cualquier momento para volver al menú*\n\n" +
		"¿En qué servicio estás interesado?"
}

// AlexaIntro opens general AI mode.
func AlexaIntro(name string) string {
	return "💬 *CONVERSANDO CON ALEXA*" + greeting(name) + "\n\n" +
		"¡Hola! Soy Alexa, tu asistente completa de Auto Clinic RD. 🚗💨\n\n" +
		"Puedo ayudarte con:\n" +
		"• Información completa de la empresa\n" +
		"• Todos nuestros servicios y combos\n" +
		"• Proceso de reservaciones\n" +
		"• Precios y promociones\n" +
		"• Ubicación y horarios\n" +
		"• Cualquier pregunta que tengas\n\n" +
		"💡 *Escribe \"salir\" en cualquier momento para volver al menú principal*\n\n" +
		"¿En qué puedo ayudarte hoy?"
}

func dateOrPlaceholder(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return "No especificada"
	}
	return raw
}
