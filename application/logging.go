package application

import (
	"payments-system/domain/request_params"
	perrors "payments-system/errors"
	"payments-system/utils/telegram"

	"go.uber.org/zap"
)

// RecordAudit is the isolated error boundary around the audit sink. The write
// runs on the pool and any failure is downgraded to a warning; a lost audit
// row must never fail the user-facing operation.
func (us *PaymentApplication) RecordAudit(userId, action, resourceType, resourceId string, details map[string]interface{}) {
	entry := request_params.AuditEntry{
		TenantId:     us.TenantId,
		UserId:       userId,
		Action:       action,
		ResourceType: resourceType,
		ResourceId:   resourceId,
		Details:      details,
	}

	us.IPool.Submit(func() {
		if err := us.IAudit.Record(entry); err != nil {
			us.Logger.With(zap.Error(err)).
				With(zap.String("action", action)).
				With(zap.String("resource_id", resourceId)).
				Warn("audit write failed")
		}
	})
}

// AlertRailFailure pushes an ops alert to Telegram when a rail fails at the
// transport level. Business declines do not alert; they are normal traffic.
func (us *PaymentApplication) AlertRailFailure(rail, reference string, amount float64, err error) {
	if !perrors.IsCode(err, perrors.CodeRailTransport) {
		return
	}

	message := telegram.RailFailureMessage(us.TenantId, rail, reference, amount, us.Tenant.Currency, err)
	us.IPool.Submit(func() {
		if sendErr := us.Alerts.Send(message); sendErr != nil {
			us.Logger.With(zap.Error(sendErr)).Warn("telegram alert failed")
		}
	})
}
