// SPDX-License-Identifier: ice License 1.0

package client

import "github.com/bloodconnect/bloodconnect/model"

// NoopPresenter swallows every notification. Useful for headless consumers
// that only care about the event handlers.
type NoopPresenter struct{}

func (*NoopPresenter) ShowAlert(*model.EmergencyAlert) error   { return nil }
func (*NoopPresenter) ShowWarning(*model.WeatherWarning) error { return nil }
func (*NoopPresenter) ShowUrgent(*model.UrgentRequest) error   { return nil }
