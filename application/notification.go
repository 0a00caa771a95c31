package application

import (
	"encoding/json"
	"fmt"

	"payments-system/domain/entities"

	humanize "github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

// NotifyResult pushes the outcome of a payment to the user over FCM and the
// realtime MQTT topic. Only terminal states notify; intermediate states reach
// the app through status polls. Everything here is fire-and-forget.
func (us *PaymentApplication) NotifyResult(userId, title string, result entities.RailResult) {
	if !result.NormalizedStatus.IsTerminal() {
		return
	}

	body := fmt.Sprintf("%s %s - %s", us.Tenant.Currency,
		humanize.CommafWithDigits(result.Amount, 2), result.NormalizedStatus)

	us.IPool.Submit(func() {
		payload, err := json.Marshal(result)
		if err != nil {
			return
		}
		if err := us.MQTT.Publish(userId, string(payload), false); err != nil {
			us.Logger.With(zap.Error(err)).With(zap.String("user_id", userId)).Warn("mqtt notify failed")
		}
	})

	us.IPool.Submit(func() {
		data := map[string]interface{}{
			"reference": result.Reference,
			"status":    string(result.NormalizedStatus),
			"rail":      string(result.Rail),
		}
		if err := us.Firebase.Send(userId, title, body, data); err != nil {
			us.Logger.With(zap.Error(err)).With(zap.String("user_id", userId)).Warn("fcm notify failed")
		}
	})
}
