package reservation

import (
	"fmt"
	"strings"

	"github.com/devdanielvaldez/autoclinic-bot/internal/bookings"
	"github.com/devdanielvaldez/autoclinic-bot/internal/catalog"
	"github.com/devdanielvaldez/autoclinic-bot/internal/replies"
)

const (
	sizeQuestion = "¿Qué tamaño tiene tu vehículo?\n\n" +
		"1. 🚗 Pequeño (Sedán compacto)\n" +
		"2. 🚙 Mediano (SUV mediano)\n" +
		"3. 🚐 Grande (SUV grande/Pickup)\n\n" +
		"Responde con el número:"
	sizeRetry = "❌ Selecciona el tamaño:\n\n1. 🚗 Pequeño\n2. 🚙 Mediano\n3. 🚐 Grande\n\nResponde con el número:"

	vehicleRetry = "❌ Por favor, proporciona la información de tu vehículo:\n\n" +
		"Marca, modelo, año y color\n\nEjemplo: \"Honda Civic 2021 gris\""

	dateQuestion = "¿Para qué fecha quieres agendar?\n\nFormato: *DD/MM/AAAA*\nEjemplo: \"15/01/2024\""
	dateRetry    = "❌ Formato incorrecto. Usa *DD/MM/AAAA*\n\nEjemplo: \"15/01/2024\"\n\n¿Para qué fecha?"
)

func startPrompt(name, phone string) string {
	greeting := ""
	if name = strings.TrimSpace(name); name != "" {
		greeting = ", " + name
	}
	return "📅 *INICIANDO RESERVACIÓN*" + greeting + "\n\n" +
		"Veo que tu número es " + phone + ". ¿Confirmas que este es tu número para la reservación?\n\n" +
		"Responde *SÍ* para confirmar o escribe el número correcto:"
}

func phoneRetry(phone string) string {
	return "❌ No entendí. ¿Confirmas que " + phone + " es tu número?\n\nResponde *SÍ* o escribe el número correcto:"
}

func packageList(pkgs []catalog.Package, retry bool) string {
	var b strings.Builder
	if retry {
		b.WriteString("❌ Selecciona un paquete válido:\n\n")
	} else {
		b.WriteString("🎁 *SELECCIONA UN PAQUETE:*\n\n")
	}
	if len(pkgs) == 0 {
		b.WriteString("⚠️ No hay combos disponibles en este momento. Escribe \"menu\" para volver al inicio.")
		return b.String()
	}
	for i, p := range pkgs {
		fmt.Fprintf(&b, "%d. *%s* - desde %s\n", i+1, p.Name, catalog.FormatPrice(p.Prices.Small))
		if d := strings.TrimSpace(p.Description); d != "" {
			fmt.Fprintf(&b, "   %s\n", d)
		}
		b.WriteString("\n")
	}
	b.WriteString("Responde con el número:")
	return b.String()
}

func timeGrid(slots []string) string {
	var b strings.Builder
	for i, s := range slots {
		b.WriteString("🕒 " + s)
		if i%3 == 2 || i == len(slots)-1 {
			b.WriteString("\n")
		} else {
			b.WriteString("   ")
		}
	}
	return b.String()
}

func timeQuestion(date string, slots []string) string {
	return "✅ Fecha: *" + date + "*\n\n¿Qué hora prefieres?\n\nHorarios:\n" + timeGrid(slots) + "\nResponde con la hora:"
}

func timeRetry(slots []string) string {
	return "❌ Hora no válida. Horarios:\n\n" + timeGrid(slots) + "\nResponde con la hora:"
}

func finalSummary(d bookings.Draft) string {
	return "📋 *CONFIRMACIÓN FINAL*\n\n" +
		"👤 " + d.CustomerName + "\n" +
		"📞 " + d.CustomerPhone + "\n" +
		"📦 " + d.PackageName + "\n" +
		"🚗 " + d.VehicleSize.Label() + "\n" +
		"🔧 " + d.VehicleInfo + "\n" +
		"📅 " + d.PreferredDate + "\n" +
		"⏰ " + d.PreferredTime + "\n" +
		"💰 " + catalog.FormatPrice(d.Total) + "\n\n" +
		"¿Todo correcto? Responde *SÍ* para confirmar:"
}

func confirmed(b *bookings.Booking) string {
	return "🎉 *¡RESERVACIÓN CONFIRMADA!*\n\n" +
		"📦 " + b.PackageName + "\n" +
		"🚗 " + b.VehicleInfo + "\n" +
		"📅 " + b.PreferredDate + "\n" +
		"⏰ " + b.PreferredTime + "\n" +
		"💰 " + catalog.FormatPrice(b.Total) + "\n" +
		"🔢 " + b.ConfirmationNumber + "\n\n" +
		replies.MainMenu(b.CustomerName)
}

func cancelled(name string) string {
	return "❌ Reservación cancelada.\n\n" + replies.MainMenu(name)
}

func persistFailed(phone string) string {
	return "❌ Error al crear la reservación. Escribe \"menu\" para volver al inicio o contacta al *" + phone + "*."
}
