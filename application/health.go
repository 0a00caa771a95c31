package application

import (
	"payments-system/domain/entities"

	"golang.org/x/sync/errgroup"
)

// HealthCheck probes every configured rail in parallel. Each probe reports
// its own healthy/unhealthy state; the fan-out itself never fails.
func (us *PaymentApplication) HealthCheck() []entities.HealthStatus {
	statuses := make([]entities.HealthStatus, 4)

	var g errgroup.Group
	g.Go(func() error {
		statuses[0] = us.InstantSwitch.HealthCheck()
		return nil
	})
	g.Go(func() error {
		statuses[1] = us.GovGateway.HealthCheck()
		return nil
	})
	g.Go(func() error {
		statuses[2] = us.BillAggregator.HealthCheck()
		return nil
	})
	g.Go(func() error {
		statuses[3] = us.CardNetwork.HealthCheck()
		return nil
	})
	_ = g.Wait()

	return statuses
}
