package notify

import (
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/order-planner/internal/domain/planning"
	"github.com/Spok95/order-planner/internal/domain/pricechanges"
)

// maxListed: сколько строк списка влезает в одно сообщение.
const maxListed = 15

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier отправляет сводки администратору в Telegram.
// Без токена или чата все методы ничего не делают.
type Notifier struct {
	api    sender
	chatID int64
	log    *slog.Logger
}

func New(token string, chatID int64, log *slog.Logger) (*Notifier, error) {
	n := &Notifier{chatID: chatID, log: log}
	if token == "" || chatID == 0 {
		return n, nil
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	n.api = api
	return n, nil
}

func (n *Notifier) Enabled() bool { return n != nil && n.api != nil }

func (n *Notifier) send(msg tgbotapi.Chattable) {
	if _, err := n.api.Send(msg); err != nil {
		n.log.Error("send failed", "err", err)
	}
}

// PlanReady: сводка плана и, если есть, xlsx с заказами.
func (n *Notifier) PlanReady(p planning.Plan, file []byte) {
	if !n.Enabled() {
		return
	}
	n.send(tgbotapi.NewMessage(n.chatID, FormatPlan(p)))
	if len(file) == 0 {
		return
	}
	doc := tgbotapi.NewDocument(n.chatID, tgbotapi.FileBytes{
		Name:  fmt.Sprintf("orders_%s.xlsx", p.Month.Format("2006_01")),
		Bytes: file,
	})
	doc.Caption = fmt.Sprintf("Заказы на %s", p.Month.Format("01.2006"))
	n.send(doc)
}

func (n *Notifier) PriceChanges(changes []pricechanges.Change) {
	if !n.Enabled() || len(changes) == 0 {
		return
	}
	n.send(tgbotapi.NewMessage(n.chatID, FormatPriceChanges(changes)))
}

func (n *Notifier) Recommendations(recs []planning.SupplierRecommendation) {
	if !n.Enabled() {
		return
	}
	n.send(tgbotapi.NewMessage(n.chatID, FormatRecommendations(recs)))
}

func FormatPlan(p planning.Plan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "План заказов на %s\n", p.Month.Format("01.2006"))
	fmt.Fprintf(&b, "Недель: %d, бюджет на неделю: %.2f\n", len(p.Weeks), p.WeeklyBudget)
	fmt.Fprintf(&b, "Заказов: %d на сумму %.2f\n", len(p.Orders), p.Total())

	if len(p.Weeks) > 0 {
		first := p.Weeks[0].Start
		var perWeek []planning.WeeklyOrder
		for _, o := range p.Orders {
			if o.WeekStart.Equal(first) {
				perWeek = append(perWeek, o)
			}
		}
		if len(perWeek) > 0 {
			b.WriteString("\nПоставщики (каждую неделю):\n")
			for _, o := range perWeek {
				fmt.Fprintf(&b, "• %s: %.2f, позиций %d\n", o.Supplier, o.Total, len(o.Lines))
			}
		}
	}
	if len(p.PriceChanges) > 0 {
		fmt.Fprintf(&b, "\nИзменений цен: %d\n", len(p.PriceChanges))
	}
	if len(p.Unmatched) > 0 {
		fmt.Fprintf(&b, "Без поставщика: %d\n", len(p.Unmatched))
	}
	return strings.TrimRight(b.String(), "\n")
}

func FormatPriceChanges(changes []pricechanges.Change) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Подорожание по накладным: %d\n", len(changes))
	for i, c := range changes {
		if i == maxListed {
			fmt.Fprintf(&b, "…и ещё %d\n", len(changes)-maxListed)
			break
		}
		fmt.Fprintf(&b, "• %s (%s): %.2f → %.2f (+%.1f%%)\n",
			c.ItemName, c.Supplier, c.InventoryPrice, c.InvoicePrice, c.PercentageHike)
	}
	return strings.TrimRight(b.String(), "\n")
}

func FormatRecommendations(recs []planning.SupplierRecommendation) string {
	var due []planning.SupplierRecommendation
	for _, r := range recs {
		if r.ShouldOrderToday {
			due = append(due, r)
		}
	}
	if len(due) == 0 {
		return "Сегодня заказывать не нужно"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Пора заказать у %d поставщиков:\n", len(due))
	for i, r := range due {
		if i == maxListed {
			fmt.Fprintf(&b, "…и ещё %d\n", len(due)-maxListed)
			break
		}
		fmt.Fprintf(&b, "• %s: позиций %d, ~%.2f", r.Supplier, len(r.Lines), r.EstimatedAmount)
		if r.Cadence.LastOrderDate.IsZero() {
			b.WriteString(" (заказов ещё не было)\n")
			continue
		}
		fmt.Fprintf(&b, " (прошло %d дн.)\n", r.DaysSinceLast)
	}
	return strings.TrimRight(b.String(), "\n")
}
