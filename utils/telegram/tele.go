package telegram

import (
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"github.com/leekchan/accounting"
)

type Notifier struct {
	BotToken  string
	ChannelId int64
}

func NewNotifier(botToken string, channelId int64) *Notifier {
	return &Notifier{BotToken: botToken, ChannelId: channelId}
}

// Send is best effort; ops alerting must never fail a payment.
func (n *Notifier) Send(message string) error {
	if n.BotToken == "" || n.ChannelId == 0 {
		return nil
	}

	bot, err := tgbotapi.NewBotAPI(n.BotToken)
	if err != nil {
		return err
	}

	_, err = bot.Send(tgbotapi.NewMessage(n.ChannelId, message))
	return err
}

// RailFailureMessage formats the ops alert raised when a rail call fails at
// the transport level.
func RailFailureMessage(tenantId, rail, reference string, amount float64, currency string, cause error) string {
	money := accounting.Accounting{Symbol: currency + " ", Precision: 2}

	return fmt.Sprintf(`RAIL TRANSPORT FAILURE
Tenant: %v
Rail: %v
Reference: %v
Amount: %v
Time: %v
Cause: %v`,
		tenantId,
		rail,
		reference,
		money.FormatMoney(amount),
		time.Now().UTC().Format("02-01-2006 15:04:05"),
		cause,
	)
}
