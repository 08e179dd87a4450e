package runbooks

import "strings"

// Entry describes one well-known runbook.
type Entry struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	File        string   `json:"file"`
	Description string   `json:"description,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
}

// Catalogue lists the well-known runbooks in display order.
var Catalogue = []Entry{
	{
		ID:          "operational",
		Name:        "SAP TRM Operational Procedures",
		File:        "01_SAP_TRM_Operational_Procedures",
		Description: "Daily transaction management, cash & liquidity, risk monitoring, month-end procedures",
		Keywords:    []string{"transaction", "settlement", "cash position", "liquidity", "month-end"},
	},
	{
		ID:          "incident",
		Name:        "SAP TRM Incident Response",
		File:        "02_SAP_TRM_Incident_Response",
		Description: "Critical incidents, emergencies, system outages, breach response procedures",
		Keywords:    []string{"incident", "emergency", "liquidity shortfall", "unauthorized payment", "outage"},
	},
	{
		ID:          "system_admin",
		Name:        "SAP TRM System Administration",
		File:        "03_SAP_TRM_System_Administration_Troubleshooting",
		Description: "Configuration, troubleshooting, account determination, performance optimization",
		Keywords:    []string{"configuration", "troubleshoot", "account determination", "posting failure", "error"},
	},
	{ID: "deployment", Name: "Deployment Guide", File: "deployment"},
	{ID: "system_config", Name: "System Configuration Guide", File: "system_config"},
	{ID: "backup_recovery", Name: "Backup & Recovery Guide", File: "backup_recovery"},
}

// Resolve maps a catalogue id to its file name. Anything else is returned
// unchanged.
func Resolve(identifier string) string {
	if e, ok := Lookup(identifier); ok {
		return e.File
	}
	return identifier
}

// Lookup finds a catalogue entry by id.
func Lookup(id string) (Entry, bool) {
	for _, e := range Catalogue {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// FindByName returns the first catalogue entry whose friendly name appears
// in text. When text names several runbooks the earliest in Catalogue wins.
func FindByName(text string) (Entry, bool) {
	for _, e := range Catalogue {
		if strings.Contains(text, e.Name) {
			return e, true
		}
	}
	return Entry{}, false
}
