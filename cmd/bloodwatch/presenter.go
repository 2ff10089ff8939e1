// SPDX-License-Identifier: ice License 1.0

package main

import (
	"fmt"

	"github.com/gookit/color"

	"github.com/bloodconnect/bloodconnect/model"
)

// terminalPresenter renders relay notifications as colored terminal lines.
// Emergencies additionally ring the terminal bell.
type terminalPresenter struct{}

func (*terminalPresenter) ShowAlert(alert *model.EmergencyAlert) error {
	fmt.Print("\a")
	color.Red.Printf("EMERGENCY: %v blood needed", alert.BloodGroup)
	if alert.PatientName != "" {
		color.Red.Printf(" for %v", alert.PatientName)
	}
	if alert.Hospital != "" {
		color.Red.Printf(" at %v", alert.Hospital)
	}
	if alert.UnitsNeeded > 0 {
		color.Red.Printf(" (%v units)", alert.UnitsNeeded)
	}
	color.Red.Println()
	if alert.Contact != "" {
		fmt.Printf("  contact: %v\n", alert.Contact)
	}
	if alert.Message != "" {
		fmt.Printf("  %v\n", alert.Message)
	}

	return nil
}

func (*terminalPresenter) ShowWarning(warning *model.WeatherWarning) error {
	severityColor(warning.Severity).Printf("WEATHER [%v]: %v\n", warning.Severity, warning.Message)

	return nil
}

func (*terminalPresenter) ShowUrgent(urgent *model.UrgentRequest) error {
	color.Magenta.Printf("URGENT: %v\n", urgent.Message)

	return nil
}

func severityColor(severity model.Severity) color.Color {
	switch severity {
	case model.SeverityExtreme:
		return color.Red
	case model.SeverityHigh:
		return color.LightRed
	case model.SeverityMedium:
		return color.Yellow
	default:
		return color.Cyan
	}
}
