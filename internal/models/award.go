// Package models defines the shared data types used across pipeline stages.
package models

import "fmt"

// AwardType is the class of award a download or transform operates on.
type AwardType string

// Supported award type classes.
const (
	AwardTypeProcurement AwardType = "procurement"
	AwardTypeGrant       AwardType = "grant"
)

// AllAwardTypes lists every supported award type in processing order.
var AllAwardTypes = []AwardType{AwardTypeProcurement, AwardTypeGrant}

// ParseAwardType validates a CLI/config award type string.
func ParseAwardType(s string) (AwardType, error) {
	switch AwardType(s) {
	case AwardTypeProcurement:
		return AwardTypeProcurement, nil
	case AwardTypeGrant:
		return AwardTypeGrant, nil
	default:
		return "", fmt.Errorf("unknown award type %q (want procurement or grant)", s)
	}
}

// PrimeAwardCodes returns the bulk-download prime award type codes for the
// class. The procurement list covers contracts and IDVs; the grant list
// covers assistance types 02 through 06.
func (t AwardType) PrimeAwardCodes() []string {
	if t == AwardTypeGrant {
		return []string{"02", "03", "04", "05", "06"}
	}

	return []string{
		"A", "B", "C", "D",
		"IDV_A", "IDV_B", "IDV_B_A", "IDV_B_B", "IDV_B_C",
		"IDV_C", "IDV_D", "IDV_E",
	}
}

// IDColumn is the award identifier column for the class (PIID for
// procurement, FAIN for grants).
func (t AwardType) IDColumn() string {
	if t == AwardTypeGrant {
		return "award_id_fain"
	}

	return "award_id_piid"
}

// ColumnsToKeep is the column subset retained by the flagging stage.
// Columns absent from a source file are dropped with a warning.
func (t AwardType) ColumnsToKeep() []string {
	if t == AwardTypeGrant {
		return []string{
			"award_id_fain",
			"prime_award_base_transaction_description",
			"total_obligated_amount",
			"period_of_performance_current_end_date",
			"recipient_name",
			"awarding_agency_name",
		}
	}

	return []string{
		"award_id_piid",
		"prime_award_base_transaction_description",
		"action_type_code",
		"total_dollars_obligated",
		"current_total_value_of_award",
		"period_of_performance_current_end_date",
		"recipient_name",
		"awarding_agency_name",
	}
}

// AmountColumn is the monetary column the combiner aggregates with max.
func (t AwardType) AmountColumn() string {
	if t == AwardTypeGrant {
		return "total_obligated_amount"
	}

	return "current_total_value_of_award"
}

// Department maps a top-tier agency name (as the bulk API expects it) to
// the acronym used in output filenames.
type Department struct {
	Name    string `yaml:"name" json:"name"`
	Acronym string `yaml:"acronym" json:"acronym"`
}
